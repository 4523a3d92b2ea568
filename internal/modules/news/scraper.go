package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
)

// ScraperSource describes a news listing page and how to read it.
type ScraperSource struct {
	Name    string
	BaseURL string
	// Path is appended to BaseURL; {ticker} is replaced by the ticker.
	Path      string
	Selectors Selectors
}

// Selectors are CSS selectors relative to each article container.
type Selectors struct {
	Article   string
	Title     string
	Link      string
	Publisher string
	Time      string // Element carrying a datetime attribute
	Thumbnail string
}

// DefaultScraperSource reads the Yahoo Finance quote news listing.
var DefaultScraperSource = ScraperSource{
	Name:    "yahoo-web",
	BaseURL: "https://finance.yahoo.com",
	Path:    "/quote/{ticker}/news/",
	Selectors: Selectors{
		Article:   "li.stream-item, section[data-testid='storyitem']",
		Title:     "h3",
		Link:      "a",
		Publisher: "div.publishing, .footer .publishing",
		Time:      "time",
		Thumbnail: "img",
	},
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper scrapes a news listing page with colly.
type Scraper struct {
	source  ScraperSource
	timeout time.Duration
	limit   int
	log     zerolog.Logger
}

// NewScraper creates a scraping provider.
func NewScraper(source ScraperSource, timeout time.Duration, log zerolog.Logger) *Scraper {
	return &Scraper{
		source:  source,
		timeout: timeout,
		limit:   perTickerCount,
		log:     log.With().Str("provider", source.Name).Logger(),
	}
}

// Name identifies the provider in logs.
func (s *Scraper) Name() string { return s.source.Name }

// Articles scrapes the listing page for ticker.
func (s *Scraper) Articles(ctx context.Context, ticker string) ([]domain.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(s.source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid scraper base URL: %w", err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(base.Hostname()),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
	})

	var (
		articles []domain.Article
		visitErr error
	)
	sel := s.source.Selectors

	c.OnHTML(sel.Article, func(e *colly.HTMLElement) {
		if len(articles) >= s.limit {
			return
		}
		title := strings.TrimSpace(e.ChildText(sel.Title))
		link := e.ChildAttr(sel.Link, "href")
		if title == "" || link == "" {
			return
		}

		a := domain.Article{
			Ticker:       ticker,
			Title:        title,
			Publisher:    strings.TrimSpace(e.ChildText(sel.Publisher)),
			Type:         "STORY",
			Link:         e.Request.AbsoluteURL(link),
			ThumbnailURL: e.ChildAttr(sel.Thumbnail, "src"),
			Source:       s.source.Name,
		}
		a.PublishedAt = publishedAt(e.DOM.Find(sel.Time).First())
		articles = append(articles, a)
	})

	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("scraping %s failed with status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	target := s.source.BaseURL + strings.ReplaceAll(s.source.Path, "{ticker}", url.PathEscape(ticker))
	if err := c.Visit(target); err != nil && visitErr == nil {
		visitErr = fmt.Errorf("failed to visit %s: %w", target, err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, visitErr
	}

	s.log.Debug().Str("ticker", ticker).Int("articles", len(articles)).Msg("Scraped news")
	return articles, nil
}

func publishedAt(sel *goquery.Selection) time.Time {
	raw, ok := sel.Attr("datetime")
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
