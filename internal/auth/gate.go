// Package auth orquesta login, refresh, autorización y revocación sobre los
// componentes del núcleo: verificación de credenciales, firma de tokens,
// almacenamiento de refresh tokens y resolución de permisos.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/damnyan/caxur/internal/authz"
	"github.com/damnyan/caxur/internal/domain/repository"
	"github.com/damnyan/caxur/internal/observability/logger"
	"github.com/damnyan/caxur/internal/security/password"
	tokens "github.com/damnyan/caxur/internal/security/token"
	"github.com/damnyan/caxur/internal/token"
)

// TokenPair es el resultado de login y refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Deps contiene las dependencias del Gate.
type Deps struct {
	Principals repository.PrincipalRepository
	Tokens     repository.RefreshTokenRepository
	Resolver   *authz.Resolver
	Signer     *token.Signer
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Gate es la máquina de estados de autenticación. Todas las operaciones son
// request-scoped e independientes: no hay estado mutable compartido más allá
// del store y del par de claves inmutable del proceso.
type Gate struct {
	deps Deps
}

// NewGate crea un Gate.
func NewGate(deps Deps) *Gate {
	return &Gate{deps: deps}
}

// Login verifica identifier+password y emite un par de tokens.
// Principal inexistente y password incorrecto colapsan en
// ErrInvalidCredentials: la falla nunca revela si la cuenta existe.
func (g *Gate) Login(ctx context.Context, principalType, identifier, plain string) (*TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.gate"),
		logger.Op("Login"),
	)

	p, err := g.deps.Principals.GetByIdentifier(ctx, principalType, identifier)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("principal not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := password.Verify(plain, p.CredentialHash)
	if err != nil {
		// Hash corrupto: falla del sistema, no un mismatch.
		log.Error("credential hash verification failed", logger.Err(err), logger.PrincipalID(p.ID))
		return nil, err
	}
	if !ok {
		log.Debug("password check failed", logger.PrincipalID(p.ID))
		return nil, ErrInvalidCredentials
	}

	pair, err := g.issuePair(ctx, p.ID, p.Type)
	if err != nil {
		return nil, err
	}
	log.Info("login ok", logger.PrincipalID(p.ID), logger.PrincipalType(p.Type))
	return pair, nil
}

// Refresh rota el refresh token presentado y emite un access token nuevo
// para el principal del registro rotado. La rotación es exactly-once: de dos
// llamadas concurrentes con el mismo secreto, una recibe ErrNotFound.
func (g *Gate) Refresh(ctx context.Context, presentedSecret string) (*TokenPair, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.gate"),
		logger.Op("Refresh"),
	)

	if !g.deps.Signer.CanIssue() {
		return nil, token.ErrNoSigningKey
	}

	replacement, err := tokens.GenerateOpaqueToken(tokens.DefaultSecretBytes)
	if err != nil {
		return nil, err
	}

	rec, err := g.deps.Tokens.Rotate(ctx,
		tokens.SHA256Base64URL(presentedSecret),
		tokens.SHA256Base64URL(replacement),
		g.deps.RefreshTTL,
	)
	if err != nil {
		if repository.IsNotFound(err) || repository.IsTokenExpired(err) {
			log.Debug("refresh rejected", logger.Err(err))
		}
		return nil, err
	}

	access, exp, err := g.deps.Signer.Issue(rec.PrincipalID, rec.PrincipalType, g.deps.AccessTTL)
	if err != nil {
		return nil, err
	}

	log.Info("refresh rotated", logger.PrincipalID(rec.PrincipalID), logger.TokenID(rec.ID))
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: replacement,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}

// AuthorizeRequest verifica el access token y chequea el permiso requerido.
// Token inválido/vencido → ErrUnauthorized. Identidad válida sin permiso →
// ErrForbidden. Son resultados distintos con semántica HTTP distinta.
func (g *Gate) AuthorizeRequest(ctx context.Context, rawToken, requiredPermission string) (*token.Claims, error) {
	claims, err := g.deps.Signer.Verify(rawToken)
	if err != nil {
		return nil, errors.Join(ErrUnauthorized, err)
	}

	if requiredPermission != "" {
		set, err := g.deps.Resolver.ResolvePermissions(ctx, claims.PrincipalID)
		if err != nil {
			return nil, err
		}
		if !set.Allows(requiredPermission) {
			logger.From(ctx).Debug("permission denied",
				logger.Component("auth.gate"),
				logger.PrincipalID(claims.PrincipalID),
				logger.Permission(requiredPermission),
			)
			return nil, ErrForbidden
		}
	}
	return claims, nil
}

// Logout consume el refresh token presentado. Idempotente: un secreto ya
// rotado, vencido o desconocido no es un error de logout.
func (g *Gate) Logout(ctx context.Context, presentedSecret string) error {
	_, err := g.deps.Tokens.ConsumeByHash(ctx, tokens.SHA256Base64URL(presentedSecret))
	if err != nil && !repository.IsNotFound(err) && !repository.IsTokenExpired(err) {
		return err
	}
	return nil
}

// Revoke elimina un refresh token por ID de registro.
func (g *Gate) Revoke(ctx context.Context, tokenID string) error {
	return g.deps.Tokens.Revoke(ctx, tokenID)
}

// RevokeAll elimina todos los refresh tokens de un principal (logout global
// o compromiso de credenciales). Retorna el número de registros eliminados.
func (g *Gate) RevokeAll(ctx context.Context, principalID string) (int64, error) {
	n, err := g.deps.Tokens.RevokeAllByPrincipal(ctx, principalID)
	if err != nil {
		return 0, err
	}
	logger.From(ctx).Info("refresh tokens revoked",
		logger.Component("auth.gate"),
		logger.PrincipalID(principalID),
		logger.Int64Count(n),
	)
	return n, nil
}

// issuePair emite access token + refresh secret nuevo y persiste el hash.
func (g *Gate) issuePair(ctx context.Context, principalID, principalType string) (*TokenPair, error) {
	access, exp, err := g.deps.Signer.Issue(principalID, principalType, g.deps.AccessTTL)
	if err != nil {
		return nil, err
	}

	secret, err := tokens.GenerateOpaqueToken(tokens.DefaultSecretBytes)
	if err != nil {
		return nil, err
	}

	if _, err := g.deps.Tokens.Create(ctx, repository.CreateRefreshTokenInput{
		PrincipalID:   principalID,
		PrincipalType: principalType,
		TokenHash:     tokens.SHA256Base64URL(secret),
		TTL:           g.deps.RefreshTTL,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: secret,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(exp).Seconds()),
	}, nil
}
