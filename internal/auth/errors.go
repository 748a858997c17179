package auth

import "errors"

// Errores del núcleo de autenticación. La capa de presentación los mapea a
// códigos de transporte; este paquete nunca hace ese mapeo.
var (
	// ErrInvalidCredentials cubre tanto "principal no existe" como "password
	// incorrecto". Indiferenciado a propósito: distinguirlos permitiría
	// enumerar cuentas. No agregar errores de login más granulares sin
	// revisión de seguridad.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indica access token ausente, inválido o vencido.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indica identidad válida pero permiso insuficiente.
	ErrForbidden = errors.New("forbidden")
)
