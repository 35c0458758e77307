package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"infographic/internal/gateway/handler"
	"infographic/internal/gateway/middleware"
)

func NewMux(h *handler.Handler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(&logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/providers", h.ListProviders)
		r.Get("/providers/{id}/models", h.ListModels)
		r.Get("/section-types", h.ListSectionTypes)

		r.Post("/reports", h.CreateReport)
		r.Get("/reports/ws", h.ReportWS)

		r.Get("/history", h.ListHistory)
		r.Delete("/history", h.ClearHistory)
		r.Get("/history/{id}", h.GetHistory)
		r.Delete("/history/{id}", h.DeleteHistory)
	})
	return r
}
