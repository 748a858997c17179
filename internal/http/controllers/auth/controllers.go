// Package auth contiene los controllers HTTP de autenticación.
package auth

import (
	coreauth "github.com/damnyan/caxur/internal/auth"
	"github.com/damnyan/caxur/internal/authz"
)

// Controllers agrupa todos los controllers de auth para facilitar el wiring.
type Controllers struct {
	Login   *LoginController
	Refresh *RefreshController
	Logout  *LogoutController
	Me      *MeController
}

// NewControllers crea todos los controllers con sus dependencias.
func NewControllers(gate *coreauth.Gate, resolver *authz.Resolver) *Controllers {
	return &Controllers{
		Login:   NewLoginController(gate),
		Refresh: NewRefreshController(gate),
		Logout:  NewLogoutController(gate),
		Me:      NewMeController(resolver),
	}
}
