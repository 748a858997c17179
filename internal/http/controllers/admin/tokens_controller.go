// Package admin contiene los controllers HTTP de administración.
package admin

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	coreauth "github.com/damnyan/caxur/internal/auth"
	httpx "github.com/damnyan/caxur/internal/http"
	dto "github.com/damnyan/caxur/internal/http/dto/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/observability/logger"
)

// TokensController permite revocar los refresh tokens de cualquier principal.
type TokensController struct {
	gate *coreauth.Gate
}

// NewTokensController crea un nuevo controller de tokens.
func NewTokensController(gate *coreauth.Gate) *TokensController {
	return &TokensController{gate: gate}
}

// RevokeAll maneja POST /v1/admin/principals/{principalID}/logout
// Revoca todos los refresh tokens del principal indicado. Revocar un
// principal sin tokens no es un error: responde 0 revocados.
func (c *TokensController) RevokeAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("TokensController.RevokeAll"))

	principalID := strings.TrimSpace(chi.URLParam(r, "principalID"))
	if principalID == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("principalID es obligatorio"))
		return
	}

	n, err := c.gate.RevokeAll(ctx, principalID)
	if err != nil {
		log.Error("admin revoke-all failed", logger.Err(err), logger.PrincipalID(principalID))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	httpx.RecordRevoked(n)
	httperrors.WriteJSON(w, http.StatusOK, dto.LogoutAllResponse{RevokedTokens: n})
}
