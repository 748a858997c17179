package auth

// LoginRequest es el body de POST /v1/auth/login.
type LoginRequest struct {
	// "user" (default) o "administrator"
	PrincipalType string `json:"principal_type,omitempty"`
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
}

// RefreshRequest es el body de POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest es el body de POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}
