// Package handlers provides HTTP handlers for the AI forecast page and API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/forecast"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
)

// recentHistoryRows is how many history rows the page shows.
const recentHistoryRows = 30

// Handler provides HTTP handlers for forecast endpoints
type Handler struct {
	service  *forecast.Service
	renderer *web.Renderer
	log      zerolog.Logger
}

// NewHandler creates a new forecast handler
func NewHandler(service *forecast.Service, renderer *web.Renderer, log zerolog.Logger) *Handler {
	return &Handler{
		service:  service,
		renderer: renderer,
		log:      log.With().Str("handler", "forecast").Logger(),
	}
}

// PageView is the forecast page model.
type PageView struct {
	Ticker        string
	Horizon       int
	MaxHorizon    int
	ModelName     string
	Result        *forecast.Result
	RecentHistory []domain.PricePoint
}

func parseHorizon(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &forecast.InputError{Field: "horizon", Message: "must be a whole number of days"}
	}
	return forecast.NormalizeHorizon(n)
}

// HandleForecastPage handles GET /forecast?ticker=&horizon=
func (h *Handler) HandleForecastPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := PageView{
		Ticker:     q.Get("ticker"),
		Horizon:    forecast.DefaultHorizon,
		MaxHorizon: forecast.MaxHorizon,
		ModelName:  h.service.ModelName(),
	}
	page := web.Page{Title: "AI", Active: "forecast"}

	horizon, err := parseHorizon(q.Get("horizon"))
	if err == nil && horizon != 0 {
		view.Horizon = horizon
	}
	if err == nil && view.Ticker == "" {
		if view.ModelName == "" {
			page.Warning = "No forecasting model is configured."
		}
		page.Data = view
		h.renderer.Render(w, http.StatusOK, "forecast", page)
		return
	}

	var result *forecast.Result
	if err == nil {
		result, err = h.service.Predict(r.Context(), view.Ticker, view.Horizon)
	}

	status := http.StatusOK
	switch {
	case errors.Is(err, forecast.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
		page.Error = err.Error()
	case errors.Is(err, forecast.ErrModelUnavailable):
		status = http.StatusServiceUnavailable
		page.Warning = "The forecasting model is unavailable right now."
	case errors.Is(err, forecast.ErrHistoryUnavailable):
		status = http.StatusServiceUnavailable
		page.Warning = "Price history for " + view.Ticker + " is unavailable right now."
	case err != nil:
		h.log.Error().Err(err).Str("ticker", view.Ticker).Msg("Forecast failed")
		status = http.StatusInternalServerError
		page.Error = "Forecast failed"
	default:
		view.Result = result
		view.RecentHistory = tail(result.History, recentHistoryRows)
	}

	page.Data = view
	h.renderer.Render(w, status, "forecast", page)
}

func tail(points []domain.PricePoint, n int) []domain.PricePoint {
	if len(points) <= n {
		return points
	}
	return points[len(points)-n:]
}

// HandleGetForecast handles GET /api/forecast/{ticker}?horizon=
func (h *Handler) HandleGetForecast(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	horizon, err := parseHorizon(r.URL.Query().Get("horizon"))
	var result *forecast.Result
	if err == nil {
		result, err = h.service.Predict(r.Context(), ticker, horizon)
	}

	var inputErr *forecast.InputError
	switch {
	case errors.As(err, &inputErr):
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": inputErr.Message,
			"field": inputErr.Field,
		})
	case errors.Is(err, forecast.ErrModelUnavailable), errors.Is(err, forecast.ErrHistoryUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Forecast failed")
		h.writeError(w, http.StatusInternalServerError, "Forecast failed")
	default:
		h.writeJSON(w, http.StatusOK, result)
	}
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
