package repository

import (
	"context"
	"time"
)

// Tipos de principal soportados. El tipo viaja en los claims del access token
// y en los refresh tokens para no mezclar registros entre clases de cuenta.
const (
	PrincipalTypeUser          = "user"
	PrincipalTypeAdministrator = "administrator"
)

// Principal representa una entidad autenticable (usuario final o administrador).
type Principal struct {
	ID             string
	Identifier     string // email para usuarios, username para administradores
	CredentialHash string // PHC string (argon2id)
	Type           string // PrincipalTypeUser | PrincipalTypeAdministrator
	CreatedAt      time.Time
}

// PrincipalRepository define las lecturas que necesita el núcleo de auth.
// La identidad es inmutable; el hash de credencial solo cambia vía
// UpdateCredentialHash (operación explícita de cambio de password).
type PrincipalRepository interface {
	// GetByIdentifier busca un principal por su identificador dentro de un tipo.
	// Retorna ErrNotFound si no existe.
	GetByIdentifier(ctx context.Context, principalType, identifier string) (*Principal, error)

	// GetByID busca un principal por ID.
	// Retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Principal, error)

	// UpdateCredentialHash reemplaza el hash de credencial de un principal.
	UpdateCredentialHash(ctx context.Context, id, newHash string) error
}
