package yahoo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

type historyFunc func(ctx context.Context, ticker string, start, end time.Time) (domain.PriceHistory, error)

// History returns daily closes for ticker between start and end.
// If the API fails, returns stale cached data if available.
func (c *Client) History(ctx context.Context, ticker string, start, end time.Time) (*domain.PriceHistory, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	key := fmt.Sprintf("%s:%s:%s", ticker, start.Format("2006-01-02"), end.Format("2006-01-02"))

	h, err := clientdata.Cached(ctx, c.cacheRepo, c.log, clientdata.TablePriceHistory, key, clientdata.TTLPriceHistory,
		func(ctx context.Context) (domain.PriceHistory, error) {
			return c.history(ctx, ticker, start, end)
		})
	if err != nil {
		return nil, err
	}
	if len(h.Points) == 0 {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}
	return &h, nil
}

// chartHistory reads the chart endpoint through finance-go.
func chartHistory(ctx context.Context, ticker string, start, end time.Time) (domain.PriceHistory, error) {
	params := &chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}
	if err := ctx.Err(); err != nil {
		return domain.PriceHistory{}, err
	}

	iter := chart.Get(params)
	h := domain.PriceHistory{Ticker: ticker}
	for iter.Next() {
		bar := iter.Bar()
		h.Points = append(h.Points, domain.PricePoint{
			Date:  time.Unix(int64(bar.Timestamp), 0).UTC().Truncate(24 * time.Hour),
			Close: bar.Close.InexactFloat64(),
		})
	}
	if err := iter.Err(); err != nil {
		return domain.PriceHistory{}, fmt.Errorf("chart request for %s failed: %w", ticker, err)
	}
	h.Currency = iter.Meta().Currency
	return h, nil
}
