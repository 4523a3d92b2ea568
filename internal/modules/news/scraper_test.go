package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body><ul>
<li class="stream-item">
  <a href="/news/apple-earnings.html"><h3>Apple beats estimates</h3></a>
  <img src="https://img.example.com/a.jpg">
  <div class="publishing">Reuters</div>
  <time datetime="2024-05-01T10:00:00Z">2h ago</time>
</li>
<li class="stream-item">
  <a href="https://other.example.com/story"><h3>Apple supplier story</h3></a>
</li>
<li class="stream-item"><h3>No link here</h3></li>
</ul></body></html>`

func newTestSource(url string) ScraperSource {
	src := DefaultScraperSource
	src.Name = "test-web"
	src.BaseURL = url
	return src
}

func TestScraper_Articles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAPL/news/", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	s := NewScraper(newTestSource(server.URL), 5*time.Second, zerolog.Nop())
	got, err := s.Articles(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, "Apple beats estimates", got[0].Title)
	assert.Equal(t, server.URL+"/news/apple-earnings.html", got[0].Link)
	assert.Equal(t, "Reuters", got[0].Publisher)
	assert.Equal(t, "https://img.example.com/a.jpg", got[0].ThumbnailURL)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), got[0].PublishedAt)
	assert.Equal(t, "test-web", got[0].Source)

	assert.Equal(t, "https://other.example.com/story", got[1].Link)
	assert.True(t, got[1].PublishedAt.IsZero())
}

func TestScraper_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := NewScraper(newTestSource(server.URL), 5*time.Second, zerolog.Nop())
	_, err := s.Articles(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestScraper_ServiceIntegration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage)
	}))
	defer server.Close()

	svc := NewService(zerolog.Nop(), NewScraper(newTestSource(server.URL), 5*time.Second, zerolog.Nop()))
	got, err := svc.Fetch(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple beats estimates", got[0].Title, "dated article is the latest")
}
