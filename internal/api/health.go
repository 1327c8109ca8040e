package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Health returns the health status of the API and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	healthCheckTimeout := 5 * time.Second
	if h.cfg != nil {
		healthCheckTimeout = h.cfg.Timeout.HealthCheck
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "ok",
		"mode":   "no-auth",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if err := h.svc.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		status["status"] = "degraded"
		checks["database"] = "unreachable"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.svc.Generator().ModelEnabled() {
		checks["llm"] = "configured"
	} else {
		checks["llm"] = "static"
	}

	JSON(w, statusCode, status)
}
