package auth

import (
	"errors"
	"net/http"
	"strings"

	coreauth "github.com/damnyan/caxur/internal/auth"
	"github.com/damnyan/caxur/internal/domain/repository"
	httpx "github.com/damnyan/caxur/internal/http"
	dto "github.com/damnyan/caxur/internal/http/dto/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/observability/logger"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	gate *coreauth.Gate
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(gate *coreauth.Gate) *LoginController {
	return &LoginController{gate: gate}
}

// Login maneja POST /v1/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	var req dto.LoginRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("identifier y password son obligatorios"))
		return
	}

	principalType := strings.TrimSpace(req.PrincipalType)
	if principalType == "" {
		principalType = repository.PrincipalTypeUser
	}
	if principalType != repository.PrincipalTypeUser && principalType != repository.PrincipalTypeAdministrator {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("principal_type inválido"))
		return
	}

	pair, err := c.gate.Login(ctx, principalType, req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, coreauth.ErrInvalidCredentials) {
			log.Debug("login rejected")
			httpx.RecordLogin("invalid_credentials")
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
			return
		}
		log.Error("login failed", logger.Err(err))
		httpx.RecordLogin("error")
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	httpx.RecordLogin("ok")
	w.Header().Set("Cache-Control", "no-store")
	httperrors.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		RefreshToken: pair.RefreshToken,
	})
}
