// Package token implementa la firma y verificación de access tokens.
//
// Esquema asimétrico Ed25519: la clave privada firma, la pública verifica.
// Un deployment de solo-verificación puede cargar únicamente la pública;
// en ese modo Issue falla con ErrNoSigningKey y Verify sigue operativo.
package token

import (
	"crypto/ed25519"
	"errors"
	"os"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoSigningKey indica que no hay clave privada cargada (modo verify-only).
	ErrNoSigningKey = errors.New("no signing key loaded")

	// ErrMalformedKey indica que el material de clave PEM no se pudo parsear.
	// Se trata como falla de configuración: bloquea el arranque.
	ErrMalformedKey = errors.New("malformed key material")

	// ErrTokenMalformed indica que la estructura del token no se pudo parsear.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenExpired indica que el token venció.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidSignature indica que la firma no verifica con la clave pública.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrInvalidTTL indica un TTL no positivo en Issue.
	ErrInvalidTTL = errors.New("ttl must be positive")
)

// Claims es el payload decodificado y verificado de un access token.
type Claims struct {
	PrincipalID   string
	PrincipalType string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

type jwtClaims struct {
	PrincipalType string `json:"type"`
	jwtv5.RegisteredClaims
}

// Signer firma y verifica access tokens EdDSA.
// Estado inmutable de por vida del proceso: el par de claves se carga una
// vez al arranque y se inyecta explícitamente (nunca global implícito).
type Signer struct {
	issuer string
	priv   ed25519.PrivateKey // nil en modo verify-only
	pub    ed25519.PublicKey
}

// NewSigner construye un Signer con claves ya parseadas (tests, cmd/keys).
// priv puede ser nil para un signer de solo-verificación.
func NewSigner(issuer string, priv ed25519.PrivateKey, pub ed25519.PublicKey) (*Signer, error) {
	if len(pub) == 0 {
		return nil, ErrMalformedKey
	}
	return &Signer{issuer: issuer, priv: priv, pub: pub}, nil
}

// NewSignerFromFiles carga el par de claves desde dos archivos PEM
// independientes (privada PKCS#8, pública PKIX). privPath vacío o inexistente
// habilita el modo verify-only; pubPath es siempre obligatorio.
func NewSignerFromFiles(issuer, privPath, pubPath string) (*Signer, error) {
	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	pubAny, err := jwtv5.ParseEdPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, ErrMalformedKey
	}
	pub, ok := pubAny.(ed25519.PublicKey)
	if !ok {
		return nil, ErrMalformedKey
	}

	var priv ed25519.PrivateKey
	if privPath != "" {
		privPEM, err := os.ReadFile(privPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			// clave privada ausente: verify-only
		} else {
			privAny, err := jwtv5.ParseEdPrivateKeyFromPEM(privPEM)
			if err != nil {
				return nil, ErrMalformedKey
			}
			priv, ok = privAny.(ed25519.PrivateKey)
			if !ok {
				return nil, ErrMalformedKey
			}
		}
	}

	return &Signer{issuer: issuer, priv: priv, pub: pub}, nil
}

// CanIssue indica si hay clave privada cargada (login/refresh habilitados).
func (s *Signer) CanIssue() bool { return len(s.priv) > 0 }

// Issue emite un access token firmado con sub, type, iat, nbf y exp = now+ttl.
func (s *Signer) Issue(principalID, principalType string, ttl time.Duration) (string, time.Time, error) {
	if !s.CanIssue() {
		return "", time.Time{}, ErrNoSigningKey
	}
	if ttl <= 0 {
		return "", time.Time{}, ErrInvalidTTL
	}

	now := time.Now().UTC()
	exp := now.Add(ttl)

	claims := jwtClaims{
		PrincipalType: principalType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   principalID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(s.priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify valida firma y vigencia, y devuelve las claims decodificadas.
// Stateless y determinístico dado el par de claves: sin side effects.
func (s *Signer) Verify(raw string) (*Claims, error) {
	keyfunc := func(t *jwtv5.Token) (any, error) { return s.pub, nil }

	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(s.issuer))
	}

	tok, err := jwtv5.ParseWithClaims(raw, &jwtClaims{}, keyfunc, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwtv5.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwtv5.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrInvalidSignature
		}
	}

	jc, ok := tok.Claims.(*jwtClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenMalformed
	}

	out := &Claims{
		PrincipalID:   jc.Subject,
		PrincipalType: jc.PrincipalType,
	}
	if jc.IssuedAt != nil {
		out.IssuedAt = jc.IssuedAt.Time
	}
	if jc.ExpiresAt != nil {
		out.ExpiresAt = jc.ExpiresAt.Time
	}
	return out, nil
}
