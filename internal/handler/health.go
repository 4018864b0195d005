package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	storage  HealthChecker
	database HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// storage is required for readiness; database is optional and nil when unused.
func NewHealthHandler(storage, database HealthChecker) *HealthHandler {
	return &HealthHandler{
		storage:  storage,
		database: database,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint. It never checks dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint.
// It returns 200 only when storage is configured and every dependency answers.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if h.storage == nil {
		checks["storage"] = "not configured"
		healthy = false
	} else if err := h.storage.Ping(ctx); err != nil {
		checks["storage"] = "error: " + err.Error()
		healthy = false
	} else {
		checks["storage"] = "ok"
	}

	if h.database != nil {
		if err := h.database.Ping(ctx); err != nil {
			checks["postgres"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	}

	status := "ok"
	statusCode := http.StatusOK
	if !healthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, r, statusCode, HealthResponse{Status: status, Checks: checks})
}
