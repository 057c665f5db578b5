package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/app"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/handlers"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/middleware"
	"github.com/TonySan1-DEV/doccraft-secure-gateway/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ResolveClientIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(90 * time.Second))
	if deps.Config.Observability.MetricsEnabled {
		r.Use(middleware.Metrics)
	}

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "X-RateLimit-User-Tier", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	generateHandler := handlers.NewGenerateHandler(deps.Gateway, deps.Logger)
	auditHandler := handlers.NewAuditHandler(deps.Auditor, deps.Logger)
	sessionHandler := handlers.NewSessionHandler(deps.Sessions, deps.Logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", sessionHandler.HandleCreateSession)
		r.Post("/generate", generateHandler.HandleGenerate)

		// Audit endpoints expose caller ids and session metadata, so
		// they require an admin-tier session.
		r.Route("/audit", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(deps.Sessions))
			r.Get("/logs", auditHandler.HandleQueryLogs)
			r.Get("/compliance", auditHandler.HandleComplianceReport)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = utils.WriteNotFound(w, "")
	})

	return r
}
