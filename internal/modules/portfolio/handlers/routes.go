package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPages registers the portfolio page routes
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/portfolio", h.HandlePortfolioPage)
}

// RegisterRoutes registers the portfolio API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
}
