package models

import (
	"time"
)

// User represents a user record in the database
type User struct {
	ID           int64     `json:"id" db:"id"`                 // Primary key, assigned by the database
	Email        string    `json:"email" db:"email"`           // Unique email
	Username     string    `json:"username" db:"username"`     // Unique username
	PasswordHash string    `json:"-" db:"password_hash"`       // bcrypt digest, never serialized
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // Creation timestamp
}

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	Token    string
	Username string
}
