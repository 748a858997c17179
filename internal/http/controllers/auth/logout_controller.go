package auth

import (
	"net/http"
	"strings"

	coreauth "github.com/damnyan/caxur/internal/auth"
	httpx "github.com/damnyan/caxur/internal/http"
	dto "github.com/damnyan/caxur/internal/http/dto/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/http/middlewares"
	"github.com/damnyan/caxur/internal/observability/logger"
)

// LogoutController maneja logout simple y logout global.
type LogoutController struct {
	gate *coreauth.Gate
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(gate *coreauth.Gate) *LogoutController {
	return &LogoutController{gate: gate}
}

// Logout maneja POST /v1/auth/logout
// Consume el refresh token presentado. Siempre responde 204: un secreto ya
// rotado o desconocido no le dice nada útil al cliente.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.LogoutRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}

	secret := strings.TrimSpace(req.RefreshToken)
	if secret == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
		return
	}

	if err := c.gate.Logout(ctx, secret); err != nil {
		log.Error("logout failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll maneja POST /v1/auth/logout-all (requiere auth)
// Revoca todos los refresh tokens del principal autenticado.
func (c *LogoutController) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LogoutController.LogoutAll"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	principalID := middlewares.GetPrincipalID(ctx)
	if principalID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	n, err := c.gate.RevokeAll(ctx, principalID)
	if err != nil {
		log.Error("logout-all failed", logger.Err(err), logger.PrincipalID(principalID))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	httpx.RecordRevoked(n)
	httperrors.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{RevokedTokens: n})
}
