// Package handlers provides HTTP handlers for the news page and API.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/news"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/portfolio"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/profile"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
)

// columnSize is the number of articles per page column.
const columnSize = 5

// TickerSource returns the holdings of a session's portfolio.
type TickerSource interface {
	Tickers(ctx context.Context, sessionID string, limit int) ([]string, error)
}

// Handler provides HTTP handlers for news endpoints
type Handler struct {
	service  *news.Service
	tickers  TickerSource
	renderer *web.Renderer
	log      zerolog.Logger
}

// NewHandler creates a new news handler
func NewHandler(service *news.Service, tickers TickerSource, renderer *web.Renderer, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		tickers:  tickers,
		renderer: renderer,
		log:      log.With().Str("handler", "news").Logger(),
	}
}

// PageView is the news page model.
type PageView struct {
	Tickers []string
	Columns [2][]domain.Article
}

// HandleNewsPage handles GET /news
func (h *Handler) HandleNewsPage(w http.ResponseWriter, r *http.Request) {
	sessionID, _ := session.IDFromContext(r.Context())
	page := web.Page{Title: "News", Active: "news", Data: PageView{}}

	tickers, err := h.tickers.Tickers(r.Context(), sessionID, news.MaxArticles)
	switch {
	case errors.Is(err, profile.ErrNoProfile):
		page.Notice = "Please answer the survey on the Profile page first."
		h.renderer.Render(w, http.StatusOK, "news", page)
		return
	case errors.Is(err, portfolio.ErrEmptyResult):
		page.Notice = "Your portfolio is empty, so there is no news to show."
		h.renderer.Render(w, http.StatusOK, "news", page)
		return
	case errors.Is(err, universe.ErrUniverseUnavailable):
		page.Warning = "ESG data is unavailable right now, please try again later."
		h.renderer.Render(w, http.StatusServiceUnavailable, "news", page)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to resolve portfolio tickers")
		h.renderer.Render(w, http.StatusInternalServerError, "error", web.Page{
			Title: "News", Active: "news", Error: "Failed to load your portfolio",
		})
		return
	}

	articles, err := h.service.Fetch(r.Context(), tickers)
	if errors.Is(err, news.ErrNewsUnavailable) {
		page.Warning = "News is unavailable right now, please try again later."
		page.Data = PageView{Tickers: tickers}
		h.renderer.Render(w, http.StatusServiceUnavailable, "news", page)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch news")
		h.renderer.Render(w, http.StatusInternalServerError, "error", web.Page{
			Title: "News", Active: "news", Error: "Failed to fetch news",
		})
		return
	}

	if len(articles) == 0 {
		page.Notice = "No recent news about your holdings."
	}
	page.Data = PageView{Tickers: tickers, Columns: news.Columns(articles, columnSize)}
	h.renderer.Render(w, http.StatusOK, "news", page)
}

// HandleGetNews handles GET /api/news?tickers=
//
// Without tickers the session's portfolio holdings are used.
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	var tickers []string
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
	} else {
		sessionID, _ := session.IDFromContext(r.Context())
		var err error
		tickers, err = h.tickers.Tickers(r.Context(), sessionID, news.MaxArticles)
		switch {
		case errors.Is(err, profile.ErrNoProfile):
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, portfolio.ErrEmptyResult):
			h.writeJSON(w, http.StatusOK, map[string]interface{}{
				"status":   "no_matches",
				"articles": []domain.Article{},
			})
			return
		case errors.Is(err, universe.ErrUniverseUnavailable):
			h.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		case err != nil:
			h.log.Error().Err(err).Msg("Failed to resolve portfolio tickers")
			h.writeError(w, http.StatusInternalServerError, "Failed to load portfolio")
			return
		}
	}

	articles, err := h.service.Fetch(r.Context(), tickers)
	if errors.Is(err, news.ErrNewsUnavailable) {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch news")
		h.writeError(w, http.StatusInternalServerError, "Failed to fetch news")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"tickers":  tickers,
		"articles": articles,
	})
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
