package news

import (
	"context"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// perTickerCount is how many items are requested per ticker.
const perTickerCount = 5

// YahooNewsClient is the subset of the Yahoo client used for news.
type YahooNewsClient interface {
	News(ctx context.Context, ticker string, count int) ([]domain.Article, error)
}

// YahooProvider reads news from the Yahoo Finance search API.
type YahooProvider struct {
	client YahooNewsClient
}

// NewYahooProvider creates a provider backed by the Yahoo client.
func NewYahooProvider(client YahooNewsClient) *YahooProvider {
	return &YahooProvider{client: client}
}

// Name identifies the provider in logs.
func (p *YahooProvider) Name() string { return "yahoo" }

// Articles returns recent Yahoo news about ticker.
func (p *YahooProvider) Articles(ctx context.Context, ticker string) ([]domain.Article, error) {
	return p.client.News(ctx, ticker, perTickerCount)
}
