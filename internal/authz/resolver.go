// Package authz resuelve permisos efectivos de un principal.
//
// El modelo es deliberadamente plano: un permiso es un string exacto
// ("users:read") y el único comodín es el universal "*". No hay matching
// jerárquico ("users:*" NO cubre "users:delete"); extender a scopes
// jerárquicos cambiaría el contrato de autorización y requiere revisión
// explícita antes de tocarlo.
package authz

import (
	"context"

	"github.com/damnyan/caxur/internal/domain/repository"
)

// Wildcard es el permiso universal: concede cualquier capability check.
const Wildcard = "*"

// PermissionSet es el conjunto deduplicado de permisos de un principal.
type PermissionSet map[string]struct{}

// NewPermissionSet construye un set desde una lista (duplicados colapsan).
func NewPermissionSet(perms []string) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p == "" {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// Allows retorna true si required está presente verbatim o si el set
// contiene el comodín universal. Un set vacío no permite nada.
func (s PermissionSet) Allows(required string) bool {
	if len(s) == 0 {
		return false
	}
	if _, ok := s[Wildcard]; ok {
		return true
	}
	_, ok := s[required]
	return ok
}

// List retorna los permisos del set (orden no determinístico).
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	return out
}

// Resolver computa permisos efectivos leyendo los roles asignados.
// Sin cache entre llamadas: las asignaciones de rol pueden cambiar en
// cualquier momento y un set de permisos viejo es un defecto de seguridad,
// no una optimización tolerable. Cacheo por-request es responsabilidad
// del caller si lo necesita.
type Resolver struct {
	roles repository.RoleRepository
}

// NewResolver crea un Resolver sobre el repositorio de roles.
func NewResolver(roles repository.RoleRepository) *Resolver {
	return &Resolver{roles: roles}
}

// ResolvePermissions retorna la unión de permisos sobre todos los roles
// del principal, colapsada a set.
func (r *Resolver) ResolvePermissions(ctx context.Context, principalID string) (PermissionSet, error) {
	perms, err := r.roles.GetPrincipalPermissions(ctx, principalID)
	if err != nil {
		return nil, err
	}
	return NewPermissionSet(perms), nil
}
