package middlewares

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware allows cross-origin requests from any origin with any method and header.
func CORSMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         600,
	})
}
