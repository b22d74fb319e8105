package models

// TokenTypeBearer is the only token type issued by the service.
const TokenTypeBearer = "bearer"

// TokenResponse represents a successful registration or login response
// swagger:model TokenResponse
type TokenResponse struct {
	// JWT access token
	// example: eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...
	AccessToken string `json:"access_token"`

	// Token type
	// example: bearer
	TokenType string `json:"token_type"`

	// Username of the authenticated user
	// example: alice
	Username string `json:"username"`
}
