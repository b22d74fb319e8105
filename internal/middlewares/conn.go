package middlewares

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-user-auth/internal/logger"
	"github.com/sbilibin2017/gw-user-auth/internal/repositories"
)

// ConnMiddleware acquires a dedicated database connection for the request
// and releases it back to the pool once the handler returns, panics included.
// Repositories pick the connection up from the request context.
func ConnMiddleware(db *sqlx.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := db.Connx(r.Context())
			if err != nil {
				logger.Log.Errorw("failed to acquire database connection", "request_id", RequestIDFromContext(r.Context()), "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			defer func() {
				if err := conn.Close(); err != nil {
					logger.Log.Errorw("failed to release database connection", "error", err)
				}
			}()

			ctx := repositories.WithConn(r.Context(), conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
