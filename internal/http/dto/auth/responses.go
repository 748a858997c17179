package auth

// TokenResponse es la respuesta de login y refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
}

// MeResponse es la respuesta de GET /v1/me.
type MeResponse struct {
	PrincipalID   string   `json:"principal_id"`
	PrincipalType string   `json:"principal_type"`
	Permissions   []string `json:"permissions"`
}

// LogoutAllResponse es la respuesta de POST /v1/auth/logout-all.
type LogoutAllResponse struct {
	RevokedTokens int64 `json:"revoked_tokens"`
}
