package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/jobsitesnap/rescue-engine/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	scanHandler := handlers.NewScanHandler(s.config, s.scans)
	namingHandler := handlers.NewNamingHandler(s.scans)
	bucketsHandler := handlers.NewBucketsHandler(s.scans)
	unknownHandler := handlers.NewUnknownHandler(s.scans)
	planHandler := handlers.NewPlanHandler(s.scans)
	reviewHandler := handlers.NewReviewHandler(s.config, s.scans)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1/rescue", func(r chi.Router) {
		r.Post("/scan", scanHandler.Start)
		r.Post("/undo/{token}", planHandler.Undo)
		r.Post("/review/mark", reviewHandler.Mark)

		r.Route("/scan/{scanID}", func(r chi.Router) {
			r.Get("/", scanHandler.Get)
			r.Get("/debug", scanHandler.Debug)

			r.Post("/clusters/{clusterID}/name", namingHandler.Name)
			r.Post("/clusters/{clusterID}/confirm", namingHandler.Confirm)
			r.Post("/clusters/{clusterID}/skip", namingHandler.Skip)
			r.Post("/clusters/{clusterID}/reopen", namingHandler.Reopen)

			r.Post("/unknown/skip", unknownHandler.Skip)
			r.Post("/unknown/assign", unknownHandler.Assign)

			r.Get("/buckets", bucketsHandler.List)
			r.Post("/sessions/{sessionID}/assign", bucketsHandler.Assign)
			r.Post("/sessions/{sessionID}/autopick", bucketsHandler.AutoPick)
			r.Post("/sessions/{sessionID}/split", bucketsHandler.Split)

			r.Get("/plan", planHandler.Plan)
			r.Post("/apply", planHandler.Apply)
		})
	})
}
