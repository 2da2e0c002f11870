package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i-m-alive/Visitor-Log-Book/internal/registry"
	"github.com/i-m-alive/Visitor-Log-Book/internal/resolve"
	"github.com/i-m-alive/Visitor-Log-Book/internal/web/handlers"
)

func (s *Server) setupRoutes(engine *resolve.Engine, store registry.Store, embedder handlers.Embedder) {
	scanHandler := handlers.NewScanHandler(engine, embedder, s.logger)
	visitorsHandler := handlers.NewVisitorsHandler(store, s.logger)
	duplicatesHandler := handlers.NewDuplicatesHandler(store, &s.config.Match, s.logger)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Checkpoint scans
		r.Post("/scan", scanHandler.Scan)
		r.Post("/checkin", scanHandler.CheckIn)
		r.Post("/exit", scanHandler.Exit)

		// Registry views
		r.Get("/visitors", visitorsHandler.List)
		r.Get("/visitors/present/count", visitorsHandler.PresentCount)
		r.Get("/visitors/host/{name}", visitorsHandler.ByHost)

		// Operator reports
		r.Get("/duplicates", duplicatesHandler.Report)
	})

	// Prometheus metrics
	s.router.Handle("/metrics", promhttp.Handler())
}
