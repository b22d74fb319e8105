package models

// RegisterRequest represents the JSON body for user registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	// Email
	// required: true
	// example: alice@example.com
	Email string `json:"email"`

	// Username
	// required: true
	// example: alice
	Username string `json:"username"`

	// Password
	// required: true
	// example: secret123
	Password string `json:"password"`
}
