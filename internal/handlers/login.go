package handlers

//go:generate mockgen -source=login.go -destination=login_mock.go -package=handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
	"github.com/sbilibin2017/gw-user-auth/internal/services"
)

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary User login
// @Description Authenticate user by email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login Request"
// @Success 200 {object} models.TokenResponse "JWT token returned"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Failure 422 {object} models.ErrorResponse "Validation error"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
			return
		}

		result, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrValidation):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			default:
				logger.Log.Errorw("internal server error", "request_id", middlewares.RequestIDFromContext(r.Context()), "err", err)
				writeInternalError(w)
			}
			return
		}

		writeJSON(w, http.StatusOK, models.TokenResponse{
			AccessToken: result.Token,
			TokenType:   models.TokenTypeBearer,
			Username:    result.Username,
		})
	}
}
