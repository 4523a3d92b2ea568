package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

type fakeHistory struct {
	points []domain.PricePoint
	err    error
	calls  int
	start  time.Time
	end    time.Time
}

func (f *fakeHistory) History(_ context.Context, ticker string, start, end time.Time) (*domain.PriceHistory, error) {
	f.calls++
	f.start, f.end = start, end
	if f.err != nil {
		return nil, f.err
	}
	return &domain.PriceHistory{Ticker: ticker, Currency: "USD", Points: f.points}, nil
}

type fakeModel struct {
	pred    *Prediction
	err     error
	calls   int
	horizon int
}

func (f *fakeModel) Name() string { return "fake" }

func (f *fakeModel) Predict(_ context.Context, _ domain.PriceHistory, horizon int) (*Prediction, error) {
	f.calls++
	f.horizon = horizon
	if f.err != nil {
		return nil, f.err
	}
	return f.pred, nil
}

func newTestService(history HistoryClient, model Model) *Service {
	s := NewService(history, model, 8, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 6, 15, 13, 30, 0, 0, time.UTC) }
	return s
}

func TestService_Predict(t *testing.T) {
	history := &fakeHistory{points: risingHistory(250)}
	model := &fakeModel{pred: &Prediction{
		Points:     []Point{{Date: time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), Value: 251}},
		Commentary: "Steady **growth**.",
	}}
	s := newTestService(history, model)

	result, err := s.Predict(context.Background(), " aapl ", 0)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Ticker)
	assert.Equal(t, "fake", result.Model)
	assert.Equal(t, DefaultHorizon, result.Horizon)
	assert.Equal(t, DefaultHorizon, model.horizon)
	assert.Len(t, result.History, 250)
	assert.Len(t, result.Forecast, 1)
	assert.Len(t, result.MovingAverages, 2)
	assert.Equal(t, "$250.00", result.LastClose)
	assert.Contains(t, string(result.CommentaryHTML), "<strong>growth</strong>")

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), history.end)
	assert.Equal(t, time.Date(2016, 6, 15, 0, 0, 0, 0, time.UTC), history.start)
}

func TestService_Predict_InvalidInput(t *testing.T) {
	history := &fakeHistory{points: risingHistory(10)}
	model := &fakeModel{pred: &Prediction{}}
	s := newTestService(history, model)

	_, err := s.Predict(context.Background(), "", 30)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.Predict(context.Background(), "AAPL", MaxHorizon+1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Zero(t, history.calls, "invalid input never reaches history")
	assert.Zero(t, model.calls)
}

func TestService_Predict_NoModel(t *testing.T) {
	history := &fakeHistory{points: risingHistory(10)}
	s := newTestService(history, nil)

	_, err := s.Predict(context.Background(), "AAPL", 30)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Zero(t, history.calls)
	assert.Empty(t, s.ModelName())
}

func TestService_Predict_HistoryUnavailable(t *testing.T) {
	model := &fakeModel{pred: &Prediction{}}
	s := newTestService(&fakeHistory{err: errors.New("yahoo down")}, model)

	_, err := s.Predict(context.Background(), "AAPL", 30)
	assert.ErrorIs(t, err, ErrHistoryUnavailable)
	assert.Zero(t, model.calls)
}

func TestService_Predict_ModelFailureIsNotRetried(t *testing.T) {
	model := &fakeModel{err: errors.New("timeout")}
	s := newTestService(&fakeHistory{points: risingHistory(10)}, model)

	_, err := s.Predict(context.Background(), "AAPL", 30)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.Equal(t, 1, model.calls)
}
