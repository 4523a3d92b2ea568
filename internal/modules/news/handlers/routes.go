package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPages registers the news page routes
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/news", h.HandleNewsPage)
}

// RegisterRoutes registers the news API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/news", h.HandleGetNews)
}
