// Package forecast delegates price forecasts for a ticker to an external
// model and decorates them with the ticker's price history.
package forecast

import (
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

const (
	// DefaultHorizon is the forecast length in days when none is given.
	DefaultHorizon = 365
	// MaxHorizon is the longest accepted forecast in days.
	MaxHorizon = 730

	maxTickerLength = 15
)

var (
	// ErrModelUnavailable is returned when no model is configured or the
	// model failed. It is never retried.
	ErrModelUnavailable = errors.New("forecast model unavailable")
	// ErrHistoryUnavailable is returned when price history cannot be loaded.
	ErrHistoryUnavailable = errors.New("price history unavailable")
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid forecast input")
)

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.^=-]+$`)

// InputError names the request parameter that failed validation.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) true.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NormalizeTicker validates a ticker and returns it upper-cased.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.TrimSpace(ticker)
	switch {
	case t == "":
		return "", &InputError{Field: "ticker", Message: "is required"}
	case len(t) > maxTickerLength:
		return "", &InputError{Field: "ticker", Message: fmt.Sprintf("must be at most %d characters", maxTickerLength)}
	case !tickerPattern.MatchString(t):
		return "", &InputError{Field: "ticker", Message: "may only contain letters, digits and . ^ = -"}
	}
	return strings.ToUpper(t), nil
}

// NormalizeHorizon applies the default and checks the accepted range.
func NormalizeHorizon(days int) (int, error) {
	if days == 0 {
		return DefaultHorizon, nil
	}
	if days < 1 || days > MaxHorizon {
		return 0, &InputError{Field: "horizon", Message: fmt.Sprintf("must be between 1 and %d days", MaxHorizon)}
	}
	return days, nil
}

// Point is one forecast day.
type Point struct {
	Date  time.Time `json:"ds"`
	Value float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// Prediction is what a model returns.
type Prediction struct {
	Points []Point
	// Commentary is optional markdown produced by the model.
	Commentary string
}

// MovingAverage is a simple moving average over daily closes. Points start
// at the first day with a full window.
type MovingAverage struct {
	Period int                 `json:"period"`
	Points []domain.PricePoint `json:"points"`
}

// Result is a forecast together with the history it was computed from.
type Result struct {
	Ticker         string              `json:"ticker"`
	Currency       string              `json:"currency"`
	Model          string              `json:"model"`
	Horizon        int                 `json:"horizon"`
	History        []domain.PricePoint `json:"history"`
	Forecast       []Point             `json:"forecast"`
	MovingAverages []MovingAverage     `json:"moving_averages"`
	LastClose      string              `json:"last_close"`
	Commentary     string              `json:"commentary,omitempty"`
	CommentaryHTML template.HTML       `json:"-"`
}
