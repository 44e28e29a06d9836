package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/datableed/decision-engine/internal/storage"
)

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Service    string            `json:"service"`
	Components map[string]string `json:"components"`
}

type HealthHandler struct {
	store    storage.HealthChecker
	dialogue string
	logger   *slog.Logger
}

// NewHealthHandler reports storage reachability and which dialogue provider
// is active. dialogue is the configured provider name, or "none".
func NewHealthHandler(store storage.HealthChecker, dialogue string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, dialogue: dialogue, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]string)
	overallStatus := "healthy"

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Storage health check failed", "error", err)
		components["storage"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["storage"] = "healthy"
	}
	components["dialogue"] = h.dialogue

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, h.logger, status, HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now().UTC(),
		Service:    "decision-engine",
		Components: components,
	})
}
