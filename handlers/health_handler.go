package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/studio-auth/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker is implemented by the identity store connection
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store  HealthChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil store skips the database check.
func NewHealthHandler(store HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger,
	}
}

// HandleHealth handles GET /healthz
// Liveness only: returns 200 while the process is serving
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"database": "healthy"}
	status, httpStatus := "healthy", http.StatusOK

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			h.logger.Warn("database health check failed", zap.Error(err))
			checks["database"] = "unhealthy"
			status, httpStatus = "unhealthy", http.StatusServiceUnavailable
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
