package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/modules/forecast"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/web"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/pkg/embedded"
)

type stubHistory struct {
	err error
}

func (s stubHistory) History(_ context.Context, ticker string, start, _ time.Time) (*domain.PriceHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	points := make([]domain.PricePoint, 60)
	for i := range points {
		points[i] = domain.PricePoint{Date: start.AddDate(0, 0, i), Close: 100 + float64(i)}
	}
	return &domain.PriceHistory{Ticker: ticker, Currency: "USD", Points: points}, nil
}

type stubModel struct {
	err error
}

func (stubModel) Name() string { return "stub" }

func (s stubModel) Predict(_ context.Context, h domain.PriceHistory, horizon int) (*forecast.Prediction, error) {
	if s.err != nil {
		return nil, s.err
	}
	last := h.Points[len(h.Points)-1]
	pred := &forecast.Prediction{Commentary: "Likely *flat*."}
	for i := 1; i <= horizon; i++ {
		pred.Points = append(pred.Points, forecast.Point{
			Date: last.Date.AddDate(0, 0, i), Value: last.Close, Lower: last.Close - 5, Upper: last.Close + 5,
		})
	}
	return pred, nil
}

func newTestRouter(t *testing.T, history forecast.HistoryClient, model forecast.Model) chi.Router {
	t.Helper()
	renderer, err := web.NewRenderer(embedded.Files, zerolog.Nop())
	require.NoError(t, err)

	svc := forecast.NewService(history, model, 1, zerolog.Nop())
	h := NewHandler(svc, renderer, zerolog.Nop())

	r := chi.NewRouter()
	h.RegisterPages(r)
	r.Route("/api", h.RegisterRoutes)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestForecastPage_Form(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, stubModel{})

	rec := get(r, "/forecast")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="ticker"`)
}

func TestForecastPage_FormWithoutModel(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, nil)

	rec := get(r, "/forecast")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No forecasting model is configured.")
}

func TestForecastPage_Result(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, stubModel{})

	rec := get(r, "/forecast?ticker=aapl&horizon=5")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "AAPL")
	assert.Contains(t, body, "$159.00")
	assert.Contains(t, body, "<em>flat</em>")
}

func TestForecastPage_Errors(t *testing.T) {
	tests := []struct {
		name    string
		history forecast.HistoryClient
		model   forecast.Model
		target  string
		status  int
	}{
		{"bad ticker", stubHistory{}, stubModel{}, "/forecast?ticker=A%20B", http.StatusUnprocessableEntity},
		{"bad horizon", stubHistory{}, stubModel{}, "/forecast?ticker=AAPL&horizon=soon", http.StatusUnprocessableEntity},
		{"horizon too long", stubHistory{}, stubModel{}, "/forecast?ticker=AAPL&horizon=9999", http.StatusUnprocessableEntity},
		{"model failure", stubHistory{}, stubModel{err: errors.New("boom")}, "/forecast?ticker=AAPL", http.StatusServiceUnavailable},
		{"no model", stubHistory{}, nil, "/forecast?ticker=AAPL", http.StatusServiceUnavailable},
		{"history failure", stubHistory{err: errors.New("down")}, stubModel{}, "/forecast?ticker=AAPL", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.history, tt.model)
			rec := get(r, tt.target)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestGetForecast(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, stubModel{})

	rec := get(r, "/api/forecast/msft?horizon=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Ticker   string           `json:"ticker"`
		Horizon  int              `json:"horizon"`
		Model    string           `json:"model"`
		Forecast []forecast.Point `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MSFT", body.Ticker)
	assert.Equal(t, 3, body.Horizon)
	assert.Equal(t, "stub", body.Model)
	assert.Len(t, body.Forecast, 3)
}

func TestGetForecast_InvalidHorizon(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, stubModel{})

	rec := get(r, "/api/forecast/AAPL?horizon=0.5")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "horizon", body["field"])
}

func TestGetForecast_ModelUnavailable(t *testing.T) {
	r := newTestRouter(t, stubHistory{}, stubModel{err: errors.New("quota")})

	rec := get(r, "/api/forecast/AAPL")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
