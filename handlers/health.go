package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/TonySan1-DEV/doccraft-secure-gateway/app"
	"go.uber.org/zap"
)

// HealthCheck returns a simple health check handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// ReadinessCheck performs a more thorough readiness check
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := "ready"

		if deps.DB == nil {
			status = "not_ready"
			checks["database"] = "not_initialized"
		} else if err := deps.DB.HealthCheck(ctx); err != nil {
			status = "not_ready"
			checks["database"] = "unhealthy"
			deps.Logger.Error("database health check failed", zap.Error(err))
		} else {
			checks["database"] = "healthy"
		}

		checks["audit_buffer"] = "ok"
		if pending := deps.Auditor.Pending(); pending > 0 {
			checks["audit_buffer"] = "draining"
		}

		w.Header().Set("Content-Type", "application/json")
		if status == "ready" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	}
}
