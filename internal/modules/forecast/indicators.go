package forecast

import (
	"math"

	"github.com/Rhymond/go-money"
	"github.com/markcheno/go-talib"
	"github.com/shopspring/decimal"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// MovingAveragePeriods are the windows computed for every forecast.
var MovingAveragePeriods = []int{50, 200}

// movingAverages returns the SMA series for each period the history is
// long enough for.
func movingAverages(points []domain.PricePoint, periods ...int) []MovingAverage {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	out := make([]MovingAverage, 0, len(periods))
	for _, period := range periods {
		if period < 2 || len(closes) < period {
			continue
		}
		sma := talib.Sma(closes, period)
		ma := MovingAverage{Period: period}
		for i := period - 1; i < len(sma); i++ {
			if math.IsNaN(sma[i]) {
				continue
			}
			ma.Points = append(ma.Points, domain.PricePoint{Date: points[i].Date, Close: sma[i]})
		}
		out = append(out, ma)
	}
	return out
}

// formatPrice renders an amount in its currency, e.g. "$189.84".
// Unknown currencies fall back to a plain two-decimal number.
func formatPrice(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return decimal.NewFromFloat(amount).StringFixed(2)
	}
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), cur.Code).Display()
}
