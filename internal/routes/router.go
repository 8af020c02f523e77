package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"label-cabinet/backstage/internal/api"
	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/logging"
	"label-cabinet/backstage/internal/metrics"
	"label-cabinet/backstage/internal/middleware"
	"label-cabinet/backstage/internal/storage"
)

// RegisterRoutes builds the HTTP handler. filesDir is served at /files/ when
// the local storage driver is in use; pass "" otherwise.
func RegisterRoutes(cfg *config.Config, deps *api.Dependencies, filesDir string) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	metricsReg := metrics.NewMetricsRegistry()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	if !cfg.IsProduction() {
		r.Use(middleware.DebugLogging)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-API-Key", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	logging.Info("Router initialized with metrics and logging middleware")

	handlers := api.NewHandlers(deps)

	r.Get("/healthCheck", handlers.HealthCheck())
	r.Handle("/metrics", promhttp.Handler())

	if filesDir != "" {
		r.Handle("/files/*", http.StripPrefix("/files/", storage.FileServer(filesDir)))
	}

	RegisterAPIRoutes(r, deps, handlers)

	return r
}
