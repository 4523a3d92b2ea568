package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// Model produces a forecast from daily price history.
type Model interface {
	Name() string
	Predict(ctx context.Context, history domain.PriceHistory, horizon int) (*Prediction, error)
}

// HistoryClient loads daily closes.
type HistoryClient interface {
	History(ctx context.Context, ticker string, start, end time.Time) (*domain.PriceHistory, error)
}

// Service produces forecasts for user-entered tickers.
type Service struct {
	history HistoryClient
	model   Model
	years   int
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a forecast service feeding years of history to model.
// model may be nil, in which case every prediction fails with
// ErrModelUnavailable.
func NewService(history HistoryClient, model Model, years int, log zerolog.Logger) *Service {
	if years <= 0 {
		years = 8
	}
	return &Service{
		history: history,
		model:   model,
		years:   years,
		now:     time.Now,
		log:     log.With().Str("service", "forecast").Logger(),
	}
}

// ModelName returns the configured model, or "" when there is none.
func (s *Service) ModelName() string {
	if s.model == nil {
		return ""
	}
	return s.model.Name()
}

// Predict validates the request, loads the ticker's history and asks the
// model for horizon days of forecast. A horizon of 0 means DefaultHorizon.
func (s *Service) Predict(ctx context.Context, ticker string, horizon int) (*Result, error) {
	ticker, err := NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	horizon, err = NormalizeHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if s.model == nil {
		return nil, fmt.Errorf("%w: no model configured", ErrModelUnavailable)
	}

	end := s.now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(-s.years, 0, 0)
	history, err := s.history.History(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}

	pred, err := s.model.Predict(ctx, *history, horizon)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", ticker).Str("model", s.model.Name()).Msg("Forecast model failed")
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	result := &Result{
		Ticker:         ticker,
		Currency:       history.Currency,
		Model:          s.model.Name(),
		Horizon:        horizon,
		History:        history.Points,
		Forecast:       pred.Points,
		MovingAverages: movingAverages(history.Points, MovingAveragePeriods...),
		Commentary:     pred.Commentary,
	}
	if n := len(history.Points); n > 0 {
		result.LastClose = formatPrice(history.Points[n-1].Close, history.Currency)
	}
	if html, err := renderCommentary(pred.Commentary); err != nil {
		s.log.Warn().Err(err).Msg("Failed to render commentary")
	} else {
		result.CommentaryHTML = html
	}

	s.log.Info().
		Str("ticker", ticker).
		Int("horizon", horizon).
		Int("history", len(history.Points)).
		Int("forecast", len(pred.Points)).
		Msg("Forecast produced")

	return result, nil
}
