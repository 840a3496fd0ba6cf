package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptpilot/model-router/app"
	"github.com/promptpilot/model-router/handlers"
	"github.com/promptpilot/model-router/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(150 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.Catalog)
	modelsHandler := handlers.NewModelsHandler(deps.Catalog, deps.RouterService.ResetAvailability, deps.Logger)
	routeHandler := handlers.NewRouteHandler(deps.RouterService, deps.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.AnalyticsService, deps.Logger)

	// Health and observability
	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	// Model inventory and admin reset
	r.Get("/models", modelsHandler.List)
	r.With(deps.AdminAuth.RequireAdmin).Put("/models", modelsHandler.Update)

	// Routing
	r.Post("/route", routeHandler.Route)

	// Analytics
	r.Route("/analytics", func(r chi.Router) {
		r.Get("/logs", analyticsHandler.Logs)
		r.Get("/metrics", analyticsHandler.Metrics)
		r.With(deps.AdminAuth.RequireAdmin).Delete("/metrics", analyticsHandler.Reset)
	})

	return r
}
