package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/config"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/di"
	"github.com/m7moud-Tahawi/ESG-impact-navigator/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		DataDir:        t.TempDir(),
		Port:           8501,
		SessionTTL:     time.Hour,
		UniverseSource: config.UniverseSourceSeed,
		YahooBaseURL:   "http://127.0.0.1:1",
		HistoryYears:   8,
		NewtonAPIURL:   "http://127.0.0.1:1",
		PortfolioSize:  10,
	}
	container, err := di.Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(container.Close)

	s := New(Config{Log: zerolog.Nop(), Port: cfg.Port, DevMode: true, Container: container})
	s.systemHandlers.systemStats = func() (float64, float64) { return 12.5, 40 }
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", session.CookieName)
	return nil
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "health checks do not start sessions")
}

func TestRootRedirectsToProfile(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/profile", rec.Header().Get("Location"))
}

func TestStaticStylesheet(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}

func TestNotFoundRendersErrorPage(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/nowhere")
}

func TestNavigationPagesRender(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/profile", "/portfolio", "/news", "/forecast"} {
		rec := serve(s, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		body := rec.Body.String()
		assert.Contains(t, body, `href="/profile"`, path)
		assert.Contains(t, body, `href="/forecast"`, path)
	}
}

func TestSessionCarriesProfileAcrossRequests(t *testing.T) {
	s := newTestServer(t)

	first := serve(s, httptest.NewRequest(http.MethodGet, "/profile", nil))
	cookie := sessionCookie(t, first)

	body := `{"risk_tolerance":"medium","weights":{"environmental":1,"social":1,"governance":1}}`
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	rec := serve(s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(cookie)
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// A new visitor has no profile
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/api/profile", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecuritySearchAPI(t *testing.T) {
	s := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/securities/search?q=MSFT", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "MSFT")
}

func TestSystemStatus(t *testing.T) {
	s := newTestServer(t)

	serve(s, httptest.NewRequest(http.MethodGet, "/profile", nil))

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/system/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 12.5, resp.CPUPercent)
	assert.Equal(t, 40.0, resp.MemoryPercent)
	assert.GreaterOrEqual(t, resp.ActiveSessions, int64(2))
	assert.Len(t, resp.Databases, 2)
	assert.Contains(t, resp.CachedEntries, "yahoo_esg")
	assert.Empty(t, resp.ForecastModel)
	require.Len(t, resp.Jobs, 2)
	assert.Equal(t, "client_data_cleanup", resp.Jobs[0].Name)
	assert.Equal(t, "session_cleanup", resp.Jobs[1].Name)
	assert.Zero(t, resp.Jobs[1].Runs)
}
