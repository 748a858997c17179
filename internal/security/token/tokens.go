package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// DefaultSecretBytes es el tamaño de los secretos opacos de refresh (256 bits).
const DefaultSecretBytes = 32

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (para guardar en DB).
// Los refresh secrets ya son aleatorios de alta entropía: un hash rápido
// alcanza y mantiene el lookup barato (a diferencia de passwords→argon2id).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
