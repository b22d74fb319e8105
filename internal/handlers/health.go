package handlers

import (
	"net/http"

	"github.com/sbilibin2017/gw-user-auth/internal/models"
)

// NewHealthHandler returns a liveness probe handler.
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
	}
}
