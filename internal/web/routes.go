package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/verdantlab/phenotrack/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	observationsHandler := handlers.NewObservationsHandler(s.store)
	homologyHandler := handlers.NewHomologyHandler()
	landmarksHandler := handlers.NewLandmarksHandler()

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Observations
		r.Get("/observations", observationsHandler.List)
		r.Get("/observations/{sample}", observationsHandler.Get)

		// Landmarks
		r.Post("/landmarks/group", homologyHandler.Group)
		r.Post("/landmarks/similar", landmarksHandler.Similar)
	})
}
