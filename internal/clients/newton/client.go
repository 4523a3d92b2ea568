// Package newton provides a client for the Newton Analytics modern-portfolio
// endpoint, which returns efficient-frontier portfolios for a set of tickers.
package newton

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
)

const (
	defaultBaseURL = "https://api.newtonanalytics.com/modern-portfolio/"
	interval       = "1mo"
	observations   = "12"
)

// ErrMalformedFrontier is returned when a frontier row does not have the
// [return, weights..., risk] shape for the requested tickers.
var ErrMalformedFrontier = errors.New("malformed frontier response")

// Portfolio is one point on the efficient frontier.
type Portfolio struct {
	Return  float64   `json:"return"`
	Weights []float64 `json:"weights"` // Same order as the requested tickers
	Risk    float64   `json:"risk"`
}

// Client is the Newton Analytics API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository
}

// NewClient creates a new Newton Analytics client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:       log.With().Str("client", "newton").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Frontier returns efficient-frontier portfolios for tickers computed from
// twelve monthly observations.
// If the API fails, returns stale cached data if available.
func (c *Client) Frontier(ctx context.Context, tickers []string) ([]Portfolio, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("no tickers")
	}
	joined := strings.Join(tickers, ",")

	return clientdata.Cached(ctx, c.cacheRepo, c.log, clientdata.TableNewtonFrontier, joined, clientdata.TTLNewtonFrontier,
		func(ctx context.Context) ([]Portfolio, error) {
			doc, err := c.doRequest(ctx, joined)
			if err != nil {
				return nil, err
			}
			return parseFrontier(doc, len(tickers))
		})
}

func (c *Client) doRequest(ctx context.Context, tickers string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("tickers", tickers)
	q.Set("interval", interval)
	q.Set("observations", observations)
	req.URL.RawQuery = q.Encode()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newton request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("tickers", tickers).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Newton request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("newton returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode newton response: %w", err)
	}
	return doc, nil
}

func parseFrontier(doc interface{}, n int) ([]Portfolio, error) {
	v, err := jsonpath.Get("$.data", doc)
	if err != nil {
		return nil, fmt.Errorf("%w: missing data: %v", ErrMalformedFrontier, err)
	}
	rows, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: data is not a list", ErrMalformedFrontier)
	}

	portfolios := make([]Portfolio, 0, len(rows))
	for i, row := range rows {
		values, ok := row.([]interface{})
		if !ok || len(values) != n+2 {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrMalformedFrontier, i, len(values), n+2)
		}
		nums := make([]float64, len(values))
		for j, raw := range values {
			f, ok := raw.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: row %d value %d is not a number", ErrMalformedFrontier, i, j)
			}
			nums[j] = f
		}
		portfolios = append(portfolios, Portfolio{
			Return:  nums[0],
			Weights: nums[1 : n+1],
			Risk:    nums[n+1],
		})
	}
	return portfolios, nil
}
