package domain

import "time"

// PricePoint is one daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory is a ticker's daily closes in ascending date order.
type PriceHistory struct {
	Ticker   string       `json:"ticker"`
	Currency string       `json:"currency"`
	Points   []PricePoint `json:"points"`
}

// Closes returns the close values in date order.
func (h PriceHistory) Closes() []float64 {
	closes := make([]float64, len(h.Points))
	for i, p := range h.Points {
		closes[i] = p.Close
	}
	return closes
}
