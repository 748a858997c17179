package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damnyan/caxur/internal/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
)

// RequireAuth valida Authorization: Bearer <JWT> y guarda la identidad en el contexto.
// Si permission != "", además exige que el principal tenga ese permiso.
// Token ausente o inválido responde 401; identidad válida sin permiso responde 403.
func RequireAuth(gate *auth.Gate, permission string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				httperrors.WriteError(w, httperrors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := gate.AuthorizeRequest(r.Context(), raw, permission)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrForbidden):
					httperrors.WriteError(w, httperrors.ErrForbidden)
				case errors.Is(err, auth.ErrUnauthorized):
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
					httperrors.WriteError(w, httperrors.ErrTokenInvalid)
				default:
					httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
				}
				return
			}

			// Inyectar identidad en contexto
			ctx := WithIdentity(r.Context(), claims.PrincipalID, claims.PrincipalType)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
