package models

// ErrorResponse represents an error response
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: Invalid credentials
	Detail string `json:"detail"`
}
