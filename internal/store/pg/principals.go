package pg

import (
	"context"

	"github.com/damnyan/caxur/internal/domain/repository"
)

func (s *Store) GetByIdentifier(ctx context.Context, principalType, identifier string) (*repository.Principal, error) {
	const q = `
SELECT id, identifier, credential_hash, principal_type, created_at
FROM principals
WHERE principal_type = $1 AND identifier = $2;`
	var p repository.Principal
	err := s.pool.QueryRow(ctx, q, principalType, identifier).
		Scan(&p.ID, &p.Identifier, &p.CredentialHash, &p.Type, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*repository.Principal, error) {
	const q = `
SELECT id, identifier, credential_hash, principal_type, created_at
FROM principals
WHERE id = $1;`
	var p repository.Principal
	err := s.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Identifier, &p.CredentialHash, &p.Type, &p.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

func (s *Store) UpdateCredentialHash(ctx context.Context, id, newHash string) error {
	const q = `UPDATE principals SET credential_hash = $2 WHERE id = $1;`
	ct, err := s.pool.Exec(ctx, q, id, newHash)
	if err != nil {
		return mapError(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
