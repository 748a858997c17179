package repository

import (
	"context"
	"time"
)

// RefreshToken representa un registro de refresh token persistido.
// Nunca se guarda el secreto en claro: TokenHash es sha256(secreto) en
// base64url y es único en toda la tabla.
type RefreshToken struct {
	ID            string
	PrincipalID   string
	PrincipalType string
	TokenHash     string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// CreateRefreshTokenInput contiene los datos para crear un refresh token.
type CreateRefreshTokenInput struct {
	PrincipalID   string
	PrincipalType string
	TokenHash     string
	TTL           time.Duration
}

// RefreshTokenRepository define el almacenamiento rotation-safe de refresh tokens.
type RefreshTokenRepository interface {
	// Create crea un nuevo registro. Retorna ErrConflict si el hash ya existe
	// (el índice único sobre token_hash es el backstop de integridad).
	Create(ctx context.Context, input CreateRefreshTokenInput) (*RefreshToken, error)

	// ConsumeByHash borra atómicamente el registro cuyo hash coincide y lo
	// retorna. La atomicidad la garantiza el storage (delete condicional),
	// nunca un lock de aplicación: de dos rotaciones concurrentes con el
	// mismo secreto exactamente una recibe el registro, la otra ErrNotFound.
	// Si el registro existía pero ya expiró, se borra igual y retorna
	// ErrTokenExpired.
	ConsumeByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// Rotate consume el registro cuyo hash coincide y crea en la misma
	// operación atómica exactamente un reemplazo para el mismo principal,
	// con replacementHash y vencimiento now+ttl. Retorna el registro nuevo.
	// Mismos errores que ConsumeByHash; si la consumición falla no se crea
	// nada (all-or-nothing).
	Rotate(ctx context.Context, presentedHash, replacementHash string, ttl time.Duration) (*RefreshToken, error)

	// Revoke elimina un registro por ID. Idempotente: sin error si no existe.
	Revoke(ctx context.Context, tokenID string) error

	// RevokeAllByPrincipal elimina todos los registros de un principal.
	// Retorna el número de registros eliminados. Idempotente.
	RevokeAllByPrincipal(ctx context.Context, principalID string) (int64, error)

	// DeleteExpired elimina registros vencidos. Housekeeping opcional:
	// la expiración se valida lazy en ConsumeByHash, este sweep solo
	// recupera espacio.
	DeleteExpired(ctx context.Context) (int64, error)
}
