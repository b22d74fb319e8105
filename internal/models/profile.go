package models

import "time"

// ProfileResponse represents the authenticated user's profile
// swagger:model ProfileResponse
type ProfileResponse struct {
	// User ID
	// example: 1
	ID int64 `json:"id"`

	// Email
	// example: alice@example.com
	Email string `json:"email"`

	// Username
	// example: alice
	Username string `json:"username"`

	// Creation timestamp
	// example: 2025-01-01T12:00:00Z
	CreatedAt time.Time `json:"created_at"`
}

// NewProfileResponse builds a profile response from a user record.
func NewProfileResponse(u *User) ProfileResponse {
	return ProfileResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
