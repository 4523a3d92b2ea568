package yahoo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// SourceName tags articles returned by this client.
const SourceName = "yahoo"

// News returns recent news items about a ticker, newest first.
// If the API fails, returns stale cached data if available.
func (c *Client) News(ctx context.Context, ticker string, count int) ([]domain.Article, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if count <= 0 {
		count = 5
	}

	articles, err := clientdata.Cached(ctx, c.cacheRepo, c.log, clientdata.TableYahooNews, ticker, clientdata.TTLNews,
		func(ctx context.Context) ([]domain.Article, error) {
			doc, err := c.getJSON(ctx, "/v1/finance/search", map[string]string{
				"q":           ticker,
				"quotesCount": "0",
				"newsCount":   strconv.Itoa(count),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to fetch news for %s: %w", ticker, err)
			}
			return parseNews(doc, ticker), nil
		})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(articles)
	if len(articles) > count {
		articles = articles[:count]
	}
	return articles, nil
}

func parseNews(doc interface{}, ticker string) []domain.Article {
	items := list(doc, "$.news")
	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		title := text(item, "$.title")
		link := text(item, "$.link")
		if title == "" || link == "" {
			continue
		}

		a := domain.Article{
			Ticker:         ticker,
			Title:          title,
			Publisher:      text(item, "$.publisher"),
			Type:           text(item, "$.type"),
			Link:           link,
			RelatedTickers: stringList(item, "$.relatedTickers"),
			Source:         SourceName,
		}
		if ts, ok := number(item, "$.providerPublishTime"); ok {
			a.PublishedAt = time.Unix(int64(ts), 0).UTC()
		}
		if resolutions := list(item, "$.thumbnail.resolutions"); len(resolutions) > 0 {
			a.ThumbnailURL = text(resolutions[0], "$.url")
		}
		articles = append(articles, a)
	}
	return articles
}

func sortNewestFirst(articles []domain.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
