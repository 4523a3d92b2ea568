package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/clientdata"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/database"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/domain"
	testhelpers "github.com/m7moud-Tahawi/ESG-impact-navigator/internal/testing"
)

const appleSummary = `{
  "quoteSummary": {
    "result": [{
      "esgScores": {
        "environmentScore": {"raw": 0.65, "fmt": "0.7"},
        "socialScore": {"raw": 6.86, "fmt": "6.9"},
        "governanceScore": {"raw": 9.18, "fmt": "9.2"},
        "totalEsg": {"raw": 16.69, "fmt": "16.7"},
        "highestControversy": 3
      },
      "assetProfile": {"sector": "Technology", "industry": "Consumer Electronics"},
      "price": {"shortName": "Apple Inc."}
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, repo *clientdata.Repository) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, repo, zerolog.Nop())
	client.cookieURL = ""
	return client
}

func newCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()
	db := testhelpers.NewTestDB(t, database.NameClientData)
	return clientdata.NewRepository(db.Conn())
}

func TestESG_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/AAPL", r.URL.Path)
		assert.Equal(t, "esgScores,assetProfile,price", r.URL.Query().Get("modules"))
		w.Write([]byte(appleSummary))
	}, nil)

	risk, err := client.ESG(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", risk.Ticker)
	assert.Equal(t, "Apple Inc.", risk.Name)
	assert.Equal(t, "Technology", risk.Sector)
	require.NotNil(t, risk.EnvironmentRisk)
	assert.InDelta(t, 0.65, *risk.EnvironmentRisk, 1e-9)
	require.NotNil(t, risk.HighestControversy)
	assert.Equal(t, 3.0, *risk.HighestControversy)

	sec := risk.Security()
	assert.InDelta(t, 39.35, sec.Environmental, 1e-9)
	assert.InDelta(t, 33.14, sec.Social, 1e-9)
	assert.InDelta(t, 30.82, sec.Governance, 1e-9)
	assert.Equal(t, 3.0, sec.HighestControversy)
}

func TestESG_NoScores(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary":{"result":[{"assetProfile":{"sector":"Energy"}}]}}`))
	}, nil)

	_, err := client.ESG(context.Background(), "XYZ")
	assert.ErrorIs(t, err, ErrNoESGData)
}

func TestESG_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
	}, nil)

	_, err := client.ESG(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestESG_StaleCacheFallback(t *testing.T) {
	var fail atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(appleSummary))
	}, newCacheRepo(t))

	ctx := context.Background()
	_, err := client.ESG(ctx, "AAPL")
	require.NoError(t, err)

	// Expire the cached row, then make the API fail
	require.NoError(t, client.cacheRepo.Put(ctx, clientdata.TableYahooESG, "AAPL", mustRisk(t, client, ctx), -time.Hour))
	fail.Store(true)

	risk, err := client.ESG(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", risk.Name)
}

func mustRisk(t *testing.T, c *Client, ctx context.Context) ESGRisk {
	entry, err := c.cacheRepo.Lookup(ctx, clientdata.TableYahooESG, "AAPL")
	require.NoError(t, err)
	require.NotNil(t, entry)
	var r ESGRisk
	require.NoError(t, json.Unmarshal(entry.Data, &r))
	return r
}

func TestSecurity_MissingRatings(t *testing.T) {
	e := 10.0
	sec := ESGRisk{Ticker: "X", EnvironmentRisk: &e}.Security()
	assert.Equal(t, 30.0, sec.Environmental)
	assert.Equal(t, 0.0, sec.Social)
	assert.Equal(t, 0.0, sec.Governance)
	assert.Equal(t, float64(DefaultControversy), sec.HighestControversy)
}

func TestScreen_BuildsQueryAndParsesQuotes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/finance/screener", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(ScreenerSize), body["size"])
		assert.Equal(t, "esg_score", body["sortField"])
		assert.Equal(t, "desc", body["sortType"])

		q := body["query"].(map[string]interface{})
		assert.Equal(t, "and", q["operator"])
		ops := q["operands"].([]interface{})
		first := ops[0].(map[string]interface{})
		assert.Equal(t, "lt", first["operator"])
		assert.Equal(t, []interface{}{"highest_controversy", 3.0}, first["operands"])

		w.Write([]byte(`{"finance":{"result":[{"quotes":[
			{"symbol":"MSFT","shortName":"Microsoft Corporation"},
			{"symbol":"AAPL","longName":"Apple Inc."},
			{"shortName":"missing symbol"}
		]}]}}`))
	}, nil)

	quotes, err := client.Screen(context.Background(), ScreenerQuery{
		Regions:          []string{"us", "fr"},
		Sectors:          []string{"Technology"},
		ControversyBelow: 3,
	})
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, ScreenerQuote{Ticker: "MSFT", Name: "Microsoft Corporation"}, quotes[0])
	assert.Equal(t, "Apple Inc.", quotes[1].Name)
}

func TestScreenerQuery_Key(t *testing.T) {
	a := ScreenerQuery{Regions: []string{"us", "fr"}, Sectors: []string{"Energy", "Technology"}}
	b := ScreenerQuery{Regions: []string{"fr", "us"}, Sectors: []string{"Technology", "Energy"}}
	assert.Equal(t, a.key(), b.key())

	c := a
	c.ControversyBelow = 2
	assert.NotEqual(t, a.key(), c.key())
}

func TestNews_ParsesAndSortsNewestFirst(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/finance/search", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("q"))
		assert.Equal(t, "0", r.URL.Query().Get("quotesCount"))
		w.Write([]byte(`{"news":[
			{"title":"Older","publisher":"Reuters","type":"STORY","link":"https://example.test/1","providerPublishTime":1700000000,"relatedTickers":["AAPL"]},
			{"title":"Newer","publisher":"Bloomberg","type":"VIDEO","link":"https://example.test/2","providerPublishTime":1700003600,
			 "thumbnail":{"resolutions":[{"url":"https://img.test/a.jpg","width":140}]}},
			{"title":"","link":"https://example.test/3"}
		]}`))
	}, nil)

	articles, err := client.News(context.Background(), "aapl", 5)
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "Newer", articles[0].Title)
	assert.Equal(t, "https://img.test/a.jpg", articles[0].ThumbnailURL)
	assert.Equal(t, "VIDEO", articles[0].Type)
	assert.Equal(t, time.Unix(1700003600, 0).UTC(), articles[0].PublishedAt)
	assert.Equal(t, []string{"AAPL"}, articles[1].RelatedTickers)
	assert.Equal(t, SourceName, articles[1].Source)
	assert.Equal(t, "AAPL", articles[1].Ticker)
}

func TestHistory_UsesCache(t *testing.T) {
	client := NewClient("http://unused.test", newCacheRepo(t), zerolog.Nop())
	calls := 0
	client.history = func(ctx context.Context, ticker string, start, end time.Time) (domain.PriceHistory, error) {
		calls++
		return domain.PriceHistory{Ticker: ticker, Currency: "USD", Points: []domain.PricePoint{
			{Date: start, Close: 100},
			{Date: start.AddDate(0, 0, 1), Close: 101},
		}}, nil
	}

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	h, err := client.History(context.Background(), "aapl", start, end)
	require.NoError(t, err)
	assert.Equal(t, "USD", h.Currency)
	assert.Equal(t, []float64{100, 101}, h.Closes())

	_, err = client.History(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestHistory_EmptyIsError(t *testing.T) {
	client := NewClient("http://unused.test", nil, zerolog.Nop())
	client.history = func(ctx context.Context, ticker string, start, end time.Time) (domain.PriceHistory, error) {
		return domain.PriceHistory{Ticker: ticker}, nil
	}
	_, err := client.History(context.Background(), "ZZZZ", time.Now().AddDate(-1, 0, 0), time.Now())
	assert.Error(t, err)
}

func TestHistory_PropagatesError(t *testing.T) {
	client := NewClient("http://unused.test", nil, zerolog.Nop())
	boom := errors.New("chart down")
	client.history = func(ctx context.Context, ticker string, start, end time.Time) (domain.PriceHistory, error) {
		return domain.PriceHistory{}, boom
	}
	_, err := client.History(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now())
	assert.ErrorIs(t, err, boom)
}

func TestEnsureCrumb(t *testing.T) {
	var crumbCalls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/consent":
			http.SetCookie(w, &http.Cookie{Name: "A3", Value: "x"})
		case "/v1/test/getcrumb":
			crumbCalls.Add(1)
			w.Write([]byte("abc123\n"))
		case "/v1/finance/search":
			assert.Equal(t, "abc123", r.URL.Query().Get("crumb"))
			w.Write([]byte(`{"news":[]}`))
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, zerolog.Nop())
	client.cookieURL = server.URL + "/consent"

	_, err := client.News(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	_, err = client.News(context.Background(), "MSFT", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), crumbCalls.Load())
}
