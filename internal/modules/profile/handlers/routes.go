package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPages registers the profile page routes
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/profile", h.HandleProfilePage)
	r.Post("/profile", h.HandleProfileSubmit)
}

// RegisterRoutes registers the profile API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.HandleGetProfile)
		r.Put("/", h.HandlePutProfile)
		r.Delete("/", h.HandleDeleteProfile)
	})
}
