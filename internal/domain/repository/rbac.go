package repository

import (
	"context"
	"time"
)

// Scopes de rol. Un nombre de rol puede repetirse entre scopes o grupos
// distintos, pero (name, scope, group_id) es único.
const (
	RoleScopeAdministrator = "administrator"
	RoleScopeGroup         = "group"
)

// Role representa un rol definido en el sistema.
type Role struct {
	ID          string
	Name        string
	Scope       string  // RoleScopeAdministrator | RoleScopeGroup
	GroupID     *string // solo para roles scoped a un grupo
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RoleRepository define las operaciones sobre roles y permisos.
// El núcleo de auth solo LEE roles; las escrituras existen para las
// operaciones administrativas (grant/revoke) y para seeds de test.
type RoleRepository interface {
	// GetPrincipalRoles retorna los roles asignados a un principal.
	GetPrincipalRoles(ctx context.Context, principalID string) ([]Role, error)

	// GetPrincipalPermissions retorna los permisos efectivos de un principal,
	// derivados de sus roles. Ejemplo: ["users:read", "users:delete"].
	// Sin deduplicar: el resolver colapsa a set.
	GetPrincipalPermissions(ctx context.Context, principalID string) ([]string, error)

	// AssignRole asigna un rol a un principal (par único).
	// Retorna ErrConflict si ya estaba asignado.
	AssignRole(ctx context.Context, principalID, roleID string) error

	// RemoveRole quita un rol de un principal. Idempotente.
	RemoveRole(ctx context.Context, principalID, roleID string) error

	// GetRole obtiene un rol por (name, scope, groupID).
	// groupID nil para roles sin grupo. Retorna ErrNotFound si no existe.
	GetRole(ctx context.Context, name, scope string, groupID *string) (*Role, error)
}
