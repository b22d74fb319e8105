package models

// HealthResponse represents the liveness probe response
// swagger:model HealthResponse
type HealthResponse struct {
	// example: ok
	Status string `json:"status"`
}
