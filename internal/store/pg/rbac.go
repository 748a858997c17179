package pg

import (
	"context"

	"github.com/damnyan/caxur/internal/domain/repository"
)

// ---------- LECTURAS ----------

// GetPrincipalRoles: roles asignados al principal, con sus permisos.
func (s *Store) GetPrincipalRoles(ctx context.Context, principalID string) ([]repository.Role, error) {
	const q = `
SELECT r.id, r.name, r.scope, r.group_id, r.created_at, r.updated_at,
       COALESCE(array_agg(rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}')
FROM principal_roles pr
JOIN roles r ON r.id = pr.role_id
LEFT JOIN role_permissions rp ON rp.role_id = r.id
WHERE pr.principal_id = $1
GROUP BY r.id
ORDER BY r.name;`
	rows, err := s.pool.Query(ctx, q, principalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []repository.Role
	for rows.Next() {
		var r repository.Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Scope, &r.GroupID, &r.CreatedAt, &r.UpdatedAt, &r.Permissions); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPrincipalPermissions: permisos efectivos derivados de los roles del principal.
func (s *Store) GetPrincipalPermissions(ctx context.Context, principalID string) ([]string, error) {
	const q = `
SELECT DISTINCT rp.permission
FROM principal_roles pr
JOIN role_permissions rp ON rp.role_id = pr.role_id
WHERE pr.principal_id = $1
ORDER BY rp.permission;`
	rows, err := s.pool.Query(ctx, q, principalID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetRole(ctx context.Context, name, scope string, groupID *string) (*repository.Role, error) {
	const q = `
SELECT r.id, r.name, r.scope, r.group_id, r.created_at, r.updated_at,
       COALESCE(array_agg(rp.permission) FILTER (WHERE rp.permission IS NOT NULL), '{}')
FROM roles r
LEFT JOIN role_permissions rp ON rp.role_id = r.id
WHERE r.name = $1 AND r.scope = $2 AND r.group_id IS NOT DISTINCT FROM $3
GROUP BY r.id;`
	var r repository.Role
	err := s.pool.QueryRow(ctx, q, name, scope, groupID).
		Scan(&r.ID, &r.Name, &r.Scope, &r.GroupID, &r.CreatedAt, &r.UpdatedAt, &r.Permissions)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

// ---------- ESCRITURAS (grant/revoke administrativo) ----------

func (s *Store) AssignRole(ctx context.Context, principalID, roleID string) error {
	const q = `
INSERT INTO principal_roles (principal_id, role_id, assigned_at)
VALUES ($1, $2, NOW());`
	if _, err := s.pool.Exec(ctx, q, principalID, roleID); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) RemoveRole(ctx context.Context, principalID, roleID string) error {
	const q = `DELETE FROM principal_roles WHERE principal_id = $1 AND role_id = $2;`
	if _, err := s.pool.Exec(ctx, q, principalID, roleID); err != nil {
		return mapError(err)
	}
	return nil
}
