package handlers

import (
	"net/http"

	"github.com/sbilibin2017/gw-user-auth/internal/middlewares"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
)

// NewProfileHandler returns an HTTP handler that reports the authenticated user.
// It must be mounted behind middlewares.AuthMiddleware.
// @Summary Current user profile
// @Description Returns the profile of the user the bearer token was issued for
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileResponse "User profile"
// @Failure 401 {object} models.ErrorResponse "Invalid token"
// @Router /profile [get]
func NewProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middlewares.UserFromContext(r.Context())
		if user == nil {
			writeUnauthorized(w)
			return
		}

		writeJSON(w, http.StatusOK, models.NewProfileResponse(user))
	}
}
