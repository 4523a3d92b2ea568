// Package handlers provides HTTP handlers for browsing the investment universe.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/universe"
)

// Handler provides HTTP handlers for universe endpoints
type Handler struct {
	service *universe.Service
	log     zerolog.Logger
}

// NewHandler creates a new universe handler
func NewHandler(service *universe.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "universe").Logger(),
	}
}

// RegisterRoutes registers the universe API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/securities", func(r chi.Router) {
		r.Get("/", h.HandleGetSecurities)
		r.Get("/search", h.HandleSearch)
	})
}

// HandleGetSecurities handles GET /api/securities
//
// Optional repeated "sector" parameters restrict the result.
func (h *Handler) HandleGetSecurities(w http.ResponseWriter, r *http.Request) {
	var sectors []string
	for _, s := range r.URL.Query()["sector"] {
		canonical, ok := domain.CanonicalSector(s)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "Unknown sector: "+s)
			return
		}
		sectors = append(sectors, canonical)
	}

	result, err := h.service.Load(r.Context(), universe.Query{
		Sectors:          sectors,
		ControversyBelow: universe.Unlimited,
	})
	if errors.Is(err, universe.ErrUniverseUnavailable) {
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load universe")
		h.writeError(w, http.StatusInternalServerError, "Failed to load universe")
		return
	}

	if len(sectors) > 0 {
		keep := make(map[string]bool, len(sectors))
		for _, s := range sectors {
			keep[domain.SectorKey(s)] = true
		}
		filtered := result.Securities[:0:0]
		for _, sec := range result.Securities {
			if keep[domain.SectorKey(sec.Sector)] {
				filtered = append(filtered, sec)
			}
		}
		result.Securities = filtered
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleSearch handles GET /api/securities/search?q=&limit=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "Missing query parameter q")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			h.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	results, err := h.service.Search(q, limit)
	if err != nil {
		h.log.Error().Err(err).Str("query", q).Msg("Search failed")
		h.writeError(w, http.StatusInternalServerError, "Search failed")
		return
	}
	if results == nil {
		results = []domain.Security{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"results": results,
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
