package http

import (
	"context"
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"github.com/damnyan/caxur/internal/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	mw "github.com/damnyan/caxur/internal/http/middlewares"
	"github.com/damnyan/caxur/internal/rate"
)

// PermTokensRevoke es el permiso requerido para revocar tokens ajenos.
const PermTokensRevoke = "tokens:revoke"

// RouterDeps contiene todo lo necesario para armar el router.
// Los handlers llegan como stdhttp.Handler para que este paquete no
// dependa de los controllers (el wiring vive en cmd).
type RouterDeps struct {
	Gate *auth.Gate

	// Handlers públicos
	Login   stdhttp.Handler
	Refresh stdhttp.Handler
	Logout  stdhttp.Handler

	// Handlers autenticados
	LogoutAll stdhttp.Handler
	Me        stdhttp.Handler

	// Handlers de administración (requieren permiso)
	AdminRevokeAll stdhttp.Handler

	// Observabilidad
	Metrics stdhttp.Handler

	// ReadyCheck se usa en /readyz (típicamente un ping al store). Opcional.
	ReadyCheck func(ctx context.Context) error

	// LoginLimiter limita login y refresh por IP. Opcional.
	LoginLimiter rate.Limiter
}

// NewRouter arma el router completo con middlewares globales y rutas.
func NewRouter(deps RouterDeps) stdhttp.Handler {
	r := chi.NewRouter()

	// Middlewares globales. El orden importa: request ID primero para que
	// recover y logging ya lo tengan disponible.
	r.Use(mw.WithRequestID())
	r.Use(mw.WithRecover())
	r.Use(mw.WithLogging())
	r.Use(WithMetrics)

	// Health
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		if deps.ReadyCheck != nil {
			if err := deps.ReadyCheck(req.Context()); err != nil {
				httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
				return
			}
		}
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if deps.Metrics != nil {
		r.Method(stdhttp.MethodGet, "/metrics", deps.Metrics)
	}

	// Auth público. Login y refresh comparten el rate limit por IP.
	limited := mw.WithRateLimit(deps.LoginLimiter, "auth")
	r.Method(stdhttp.MethodPost, "/v1/auth/login", limited(deps.Login))
	r.Method(stdhttp.MethodPost, "/v1/auth/refresh", limited(deps.Refresh))
	r.Method(stdhttp.MethodPost, "/v1/auth/logout", deps.Logout)

	// Auth protegido: solo requiere identidad válida.
	authed := mw.RequireAuth(deps.Gate, "")
	r.Method(stdhttp.MethodPost, "/v1/auth/logout-all", authed(deps.LogoutAll))
	r.Method(stdhttp.MethodGet, "/v1/me", authed(deps.Me))

	// Administración: requiere permiso explícito.
	if deps.AdminRevokeAll != nil {
		revokeAuthed := mw.RequireAuth(deps.Gate, PermTokensRevoke)
		r.Method(stdhttp.MethodPost, "/v1/admin/principals/{principalID}/logout", revokeAuthed(deps.AdminRevokeAll))
	}

	return r
}
