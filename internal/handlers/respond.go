package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-user-auth/internal/models"
)

// Error messages shared by the auth handlers.
const (
	msgInvalidBody        = "Invalid request body"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidToken       = "Invalid token"
	msgInternal           = "Internal server error"
)

// writeJSON writes a JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message in the {"detail": ...} shape clients expect.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Detail: msg})
}

// writeUnauthorized sends the single undifferentiated 401 used for token failures.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, msgInvalidToken)
}

// writeInternalError sends a generic 500.
func writeInternalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, msgInternal)
}
