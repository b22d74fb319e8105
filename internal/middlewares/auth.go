package middlewares

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/models"
	"github.com/sbilibin2017/gw-user-auth/internal/services"
)

// Authenticator resolves an Authorization header value to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, authHeader string) (*models.User, error)
}

type userContextKey struct{}

var userKey = userContextKey{}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext retrieves the authenticated user. Returns nil if not present.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// AuthMiddleware returns a middleware that authenticates the bearer token
// and passes the resolved user to the next handler via the context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, err := auth.Authenticate(ctx, r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, services.ErrUnauthorized) {
					writeDetail(w, http.StatusUnauthorized, "Invalid token")
					return
				}
				logger.Log.Errorw("authentication failed", "request_id", RequestIDFromContext(ctx), "err", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{Detail: msg})
}
