package auth

import (
	"net/http"

	"github.com/damnyan/caxur/internal/authz"
	dto "github.com/damnyan/caxur/internal/http/dto/auth"
	httperrors "github.com/damnyan/caxur/internal/http/errors"
	"github.com/damnyan/caxur/internal/http/middlewares"
	"github.com/damnyan/caxur/internal/observability/logger"
)

// MeController expone la identidad y permisos del principal autenticado.
type MeController struct {
	resolver *authz.Resolver
}

// NewMeController crea un nuevo controller de identidad.
func NewMeController(resolver *authz.Resolver) *MeController {
	return &MeController{resolver: resolver}
}

// Me maneja GET /v1/me (requiere auth)
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
		return
	}

	principalID := middlewares.GetPrincipalID(ctx)
	if principalID == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	set, err := c.resolver.ResolvePermissions(ctx, principalID)
	if err != nil {
		log.Error("permission resolution failed", logger.Err(err), logger.PrincipalID(principalID))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, dto.MeResponse{
		PrincipalID:   principalID,
		PrincipalType: middlewares.GetPrincipalType(ctx),
		Permissions:   set.List(),
	})
}
