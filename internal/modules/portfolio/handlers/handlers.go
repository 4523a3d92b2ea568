// Package handlers provides HTTP handlers for the portfolio page and API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/portfolio"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
)

// Handler provides HTTP handlers for portfolio endpoints
type Handler struct {
	service  *portfolio.Service
	renderer *web.Renderer
	log      zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, renderer *web.Renderer, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		log:      log.With().Str("handler", "portfolio").Logger(),
	}
}

// PageView is the portfolio page model.
type PageView struct {
	*portfolio.View
	NeedsProfile       bool
	Distribution       []portfolio.Slice
	SectorDistribution []portfolio.Slice
}

const (
	noProfileNotice   = "Please answer the survey on the Profile page first."
	noMatchesNotice   = "No securities match your preferences. Try excluding fewer sectors or accepting more controversy."
	fallbackWarning   = "Live ESG data is unavailable, showing the built-in universe."
	analyticsWarning  = "Portfolio analytics are unavailable right now, showing the ranked list only."
	unavailableNotice = "ESG data is unavailable right now, please try again later."
)

// HandlePortfolioPage handles GET /portfolio
func (h *Handler) HandlePortfolioPage(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())
	page := web.Page{Title: "Investment portfolio", Active: "portfolio"}

	view, err := h.service.Build(r.Context(), sessionID)
	switch {
	case errors.Is(err, profile.ErrNoProfile):
		page.Notice = noProfileNotice
		page.Data = PageView{NeedsProfile: true}
		h.renderer.Render(w, http.StatusOK, "portfolio", page)
		return
	case errors.Is(err, portfolio.ErrEmptyResult):
		h.log.Debug().Err(err).Str("session_id", sessionID).Msg("Empty portfolio")
		page.Notice = noMatchesNotice
		page.Data = PageView{View: view}
		h.renderer.Render(w, http.StatusOK, "portfolio", page)
		return
	case errors.Is(err, universe.ErrUniverseUnavailable):
		h.log.Warn().Err(err).Msg("Universe unavailable")
		page.Warning = unavailableNotice
		page.Data = PageView{View: view}
		h.renderer.Render(w, http.StatusServiceUnavailable, "portfolio", page)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to build portfolio")
		h.renderer.Render(w, http.StatusInternalServerError, "error", web.Page{
			Title: "Investment portfolio", Active: "portfolio", Error: "Failed to build your portfolio",
		})
		return
	}

	pv := PageView{View: view}
	if view.Recommendation != nil {
		pv.Distribution = view.Recommendation.Distribution()
		pv.SectorDistribution = view.Recommendation.SectorDistribution()
	}
	switch {
	case view.Degraded:
		page.Warning = fallbackWarning
	case view.AnalyticsUnavailable:
		page.Warning = analyticsWarning
	}
	page.Data = pv

	h.renderer.Render(w, http.StatusOK, "portfolio", page)
}

// portfolioResponse is the body of GET /api/portfolio.
type portfolioResponse struct {
	Status string `json:"status"`
	*portfolio.View
	Distribution       []portfolio.Slice `json:"distribution,omitempty"`
	SectorDistribution []portfolio.Slice `json:"sector_distribution,omitempty"`
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())

	view, err := h.service.Build(r.Context(), sessionID)
	switch {
	case errors.Is(err, profile.ErrNoProfile):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, portfolio.ErrEmptyResult):
		h.writeJSON(w, http.StatusOK, portfolioResponse{Status: "no_matches", View: view})
		return
	case errors.Is(err, universe.ErrUniverseUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to build portfolio")
		h.writeError(w, http.StatusInternalServerError, "Failed to build portfolio")
		return
	}

	resp := portfolioResponse{Status: "ok", View: view}
	if view.Recommendation != nil {
		resp.Distribution = view.Recommendation.Distribution()
		resp.SectorDistribution = view.Recommendation.SectorDistribution()
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
