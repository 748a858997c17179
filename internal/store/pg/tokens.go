package pg

import (
	"context"
	"time"

	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (s *Store) Create(ctx context.Context, input repository.CreateRefreshTokenInput) (*repository.RefreshToken, error) {
	if input.TokenHash == "" || input.PrincipalID == "" {
		return nil, repository.ErrInvalidInput
	}
	const q = `
INSERT INTO refresh_tokens (id, principal_id, principal_type, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, NOW() + $5::interval, NOW())
RETURNING id, principal_id, principal_type, token_hash, expires_at, created_at;`
	var rec repository.RefreshToken
	err := s.pool.QueryRow(ctx, q,
		uuid.NewString(), input.PrincipalID, input.PrincipalType, input.TokenHash, input.TTL.String(),
	).Scan(&rec.ID, &rec.PrincipalID, &rec.PrincipalType, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &rec, nil
}

// ConsumeByHash borra el registro que coincide y lo retorna en un solo
// statement. El DELETE condicional es la detección de conflictos nativa
// del storage: dos consumiciones concurrentes del mismo hash resuelven en
// exactamente un row para una y cero para la otra, sin locks de aplicación.
func (s *Store) ConsumeByHash(ctx context.Context, tokenHash string) (*repository.RefreshToken, error) {
	return consumeByHash(ctx, s.pool, tokenHash)
}

// querier cubre pool y tx para reusar el consume dentro de Rotate.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func consumeByHash(ctx context.Context, q querier, tokenHash string) (*repository.RefreshToken, error) {
	const del = `
DELETE FROM refresh_tokens
WHERE token_hash = $1
RETURNING id, principal_id, principal_type, token_hash, expires_at, created_at;`
	var rec repository.RefreshToken
	err := q.QueryRow(ctx, del, tokenHash).
		Scan(&rec.ID, &rec.PrincipalID, &rec.PrincipalType, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if time.Now().After(rec.ExpiresAt) {
		// Vencido: queda borrado, pero no habilita una rotación.
		return nil, repository.ErrTokenExpired
	}
	return &rec, nil
}

func (s *Store) Rotate(ctx context.Context, presentedHash, replacementHash string, ttl time.Duration) (*repository.RefreshToken, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	consumed, err := consumeByHash(ctx, tx, presentedHash)
	if err != nil {
		if repository.IsTokenExpired(err) {
			// Commitear el delete del registro vencido aunque la rotación falle.
			_ = tx.Commit(ctx)
		}
		return nil, err
	}

	const ins = `
INSERT INTO refresh_tokens (id, principal_id, principal_type, token_hash, expires_at, created_at)
VALUES ($1, $2, $3, $4, NOW() + $5::interval, NOW())
RETURNING id, principal_id, principal_type, token_hash, expires_at, created_at;`
	var rec repository.RefreshToken
	err = tx.QueryRow(ctx, ins,
		uuid.NewString(), consumed.PrincipalID, consumed.PrincipalType, replacementHash, ttl.String(),
	).Scan(&rec.ID, &rec.PrincipalID, &rec.PrincipalType, &rec.TokenHash, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Revoke(ctx context.Context, tokenID string) error {
	const q = `DELETE FROM refresh_tokens WHERE id = $1;`
	if _, err := s.pool.Exec(ctx, q, tokenID); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) RevokeAllByPrincipal(ctx context.Context, principalID string) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE principal_id = $1;`
	ct, err := s.pool.Exec(ctx, q, principalID)
	if err != nil {
		return 0, mapError(err)
	}
	return ct.RowsAffected(), nil
}

func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM refresh_tokens WHERE expires_at <= NOW();`
	ct, err := s.pool.Exec(ctx, q)
	if err != nil {
		return 0, mapError(err)
	}
	return ct.RowsAffected(), nil
}
