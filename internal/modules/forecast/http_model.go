package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

const dateLayout = "2006-01-02"

// HTTPModel calls a Prophet-style forecasting service. The service receives
// the daily history as ds/y rows and answers with ds/yhat/yhat_lower/yhat_upper.
type HTTPModel struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewHTTPModel creates a model client for the service at baseURL.
func NewHTTPModel(baseURL string, log zerolog.Logger) *HTTPModel {
	return &HTTPModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		log: log.With().Str("client", "forecast_service").Logger(),
	}
}

// Name identifies the model in results.
func (m *HTTPModel) Name() string { return "prophet" }

type historyRow struct {
	DS string  `json:"ds"`
	Y  float64 `json:"y"`
}

type predictRequest struct {
	Ticker  string       `json:"ticker"`
	Periods int          `json:"periods"`
	History []historyRow `json:"history"`
}

type forecastRow struct {
	DS     string  `json:"ds"`
	YHat   float64 `json:"yhat"`
	YLower float64 `json:"yhat_lower"`
	YUpper float64 `json:"yhat_upper"`
}

type predictResponse struct {
	Forecast []forecastRow `json:"forecast"`
}

// Predict posts the history to /predict and parses the forecast rows.
func (m *HTTPModel) Predict(ctx context.Context, history domain.PriceHistory, horizon int) (*Prediction, error) {
	body := predictRequest{Ticker: history.Ticker, Periods: horizon}
	for _, p := range history.Points {
		body.History = append(body.History, historyRow{DS: p.Date.Format(dateLayout), Y: p.Close})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode forecast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	m.log.Debug().
		Str("ticker", history.Ticker).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Forecast request")

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("forecast service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode forecast response: %w", err)
	}

	pred := &Prediction{Points: make([]Point, 0, len(out.Forecast))}
	for i, row := range out.Forecast {
		ds, err := parseDate(row.DS)
		if err != nil {
			return nil, fmt.Errorf("forecast row %d: %w", i, err)
		}
		pred.Points = append(pred.Points, Point{Date: ds, Value: row.YHat, Lower: row.YLower, Upper: row.YUpper})
	}
	return pred, nil
}

// parseDate accepts a plain date or a Prophet timestamp.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
