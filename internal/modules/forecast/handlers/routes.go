package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterPages registers the forecast page routes
func (h *Handler) RegisterPages(r chi.Router) {
	r.Get("/forecast", h.HandleForecastPage)
}

// RegisterRoutes registers the forecast API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast/{ticker}", h.HandleGetForecast)
}
