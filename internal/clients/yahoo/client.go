// Package yahoo provides a client for the Yahoo Finance JSON endpoints used by
// the navigator: ESG scores, company profile, equity screener, news search and
// daily price history.
package yahoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
)

const (
	defaultBaseURL   = "https://query2.finance.yahoo.com"
	defaultCookieURL = "https://finance.yahoo.com"
	userAgent        = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client is the Yahoo Finance API client.
type Client struct {
	baseURL    string
	cookieURL  string // Page visited once to obtain the consent cookie; empty skips the handshake
	httpClient *http.Client
	log        zerolog.Logger
	cacheRepo  *clientdata.Repository

	crumbOnce sync.Once
	crumb     string

	// history loads daily closes; replaced in tests
	history historyFunc
}

// NewClient creates a new Yahoo Finance client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		cookieURL: defaultCookieURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 20 * time.Second,
		},
		log:       log.With().Str("client", "yahoo").Logger(),
		cacheRepo: cacheRepo,
		history:   chartHistory,
	}
}

// ensureCrumb performs the cookie and crumb handshake once. Failures are
// logged and requests continue without a crumb.
func (c *Client) ensureCrumb(ctx context.Context) string {
	c.crumbOnce.Do(func() {
		if c.cookieURL == "" {
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cookieURL, nil)
		if err != nil {
			return
		}
		req.Header.Set("User-Agent", userAgent)
		if resp, err := c.httpClient.Do(req); err == nil {
			resp.Body.Close()
		}

		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/test/getcrumb", nil)
		if err != nil {
			return
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to obtain Yahoo crumb")
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			c.log.Warn().Int("status", resp.StatusCode).Msg("Yahoo crumb request rejected")
			return
		}
		c.crumb = strings.TrimSpace(string(body))
	})
	return c.crumb
}

// getJSON issues a GET and decodes the body into a generic JSON document
// suitable for jsonpath lookups.
func (c *Client) getJSON(ctx context.Context, path string, params map[string]string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if crumb := c.ensureCrumb(ctx); crumb != "" {
		q.Set("crumb", crumb)
	}
	req.URL.RawQuery = q.Encode()

	return c.do(req)
}

// postJSON issues a POST with a JSON body.
func (c *Client) postJSON(ctx context.Context, path string, params map[string]string, body interface{}) (interface{}, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	q := req.URL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	if crumb := c.ensureCrumb(ctx); crumb != "" {
		q.Set("crumb", crumb)
	}
	req.URL.RawQuery = q.Encode()

	return c.do(req)
}

func (c *Client) do(req *http.Request) (interface{}, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Yahoo request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var doc interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return doc, nil
}
