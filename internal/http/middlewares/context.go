package middlewares

import "context"

// ctxKey evita colisiones con otras claves de contexto
type ctxKey string

const (
	ctxKeyRequestID     ctxKey = "request_id"
	ctxKeyPrincipalID   ctxKey = "principal_id"
	ctxKeyPrincipalType ctxKey = "principal_type"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestID devuelve el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyRequestID).(string)
	return v
}

// WithIdentity inyecta la identidad autenticada en el contexto.
func WithIdentity(ctx context.Context, principalID, principalType string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyPrincipalID, principalID)
	return context.WithValue(ctx, ctxKeyPrincipalType, principalType)
}

// GetPrincipalID devuelve el ID del principal autenticado ("" si no hay).
func GetPrincipalID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyPrincipalID).(string)
	return v
}

// GetPrincipalType devuelve el tipo del principal autenticado ("" si no hay).
func GetPrincipalType(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyPrincipalType).(string)
	return v
}
