package handlers

//go:generate mockgen -source=register.go -destination=register_mock.go -package=handlers

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

// Registerer defines the interface that the service must implement.
type Registerer interface {
	Register(ctx context.Context, email, username, password string) (*models.AuthResult, error)
}

// NewRegisterHandler returns an HTTP handler for user registration.
// @Summary Register a new user
// @Description Creates a new user account and returns a bearer token. Email and username must be unique.
// @Tags auth
// @Accept json
// @Produce json
// @Param registerRequest body models.RegisterRequest true "User registration request"
// @Success 200 {object} models.TokenResponse "User registered, token issued"
// @Failure 400 {object} models.ErrorResponse "Invalid request body"
// @Failure 409 {object} models.ErrorResponse "User already exists"
// @Failure 422 {object} models.ErrorResponse "Validation error"
// @Failure 500 {object} models.ErrorResponse "Internal server error"
// @Router /register [post]
func NewRegisterHandler(svc Registerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
			return
		}

		result, err := svc.Register(r.Context(), req.Email, req.Username, req.Password)
		if err != nil {
			var vErr *services.ValidationError
			switch {
			case errors.As(err, &vErr):
				writeError(w, http.StatusUnprocessableEntity, vErr.Error())
			case errors.Is(err, services.ErrValidation):
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeError(w, http.StatusConflict, msgUserExists)
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
