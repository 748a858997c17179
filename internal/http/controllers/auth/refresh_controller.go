package auth

import (
	"net/http"
	"strings"

	coreauth "github.com/damnyan/caxur/internal/auth"
	"github.com/damnyan/caxur/internal/domain/repository"
	httpx "github.com/damnyan/caxur/internal/http"
	dto "github.com/damnyan/caxur/internal/http/dto/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/observability/logger"
)

// RefreshController maneja la rotación de refresh tokens.
type RefreshController struct {
	gate *coreauth.Gate
}

// NewRefreshController crea un nuevo controller de refresh.
func NewRefreshController(gate *coreauth.Gate) *RefreshController {
	return &RefreshController{gate: gate}
}

// Refresh maneja POST /v1/auth/refresh
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.RefreshRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}

	secret := strings.TrimSpace(req.RefreshToken)
	if secret == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("refresh_token es obligatorio"))
		return
	}

	pair, err := c.gate.Refresh(ctx, secret)
	if err != nil {
		// Desconocido, ya rotado o vencido: misma respuesta para el cliente.
		if repository.IsNotFound(err) || repository.IsTokenExpired(err) {
			log.Debug("refresh rejected", logger.Err(err))
			httpx.RecordRefresh("invalid")
			httperrors.WriteError(w, httperrors.ErrRefreshInvalid)
			return
		}
		log.Error("refresh failed", logger.Err(err))
		httpx.RecordRefresh("error")
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	httpx.RecordRefresh("ok")
	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}
