package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/cache"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/metrics"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/scheduler"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/service"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/sources"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/store"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Collector.KeywordDelayMs = 0
	cfg.Scheduler.ChainDelayMs = 0
	cfg.Server.RateLimitEnabled = false
	cfg.Sources[string(models.SourceWeibo)] = config.SourceConfig{
		Enabled:     true,
		MaxResults:  2,
		Keywords:    []string{"内购"},
		RateLimitMs: 0,
		TimeoutSec:  2,
	}
	return cfg
}

func testServer(t *testing.T, cfg config.Config) (*Server, *store.Store) {
	t.Helper()

	st := store.New()
	registry := metrics.NewRegistry()
	clients := []sources.Client{
		sources.NewPlaceholderClient(models.SourceWeibo, cfg.Sources[string(models.SourceWeibo)]),
	}
	collector := scheduler.NewCollector(cfg, clients, registry)
	sched := scheduler.New(cfg, st, collector, metrics.NewMonitor(), registry)
	c := cache.NewTTLCache(cfg.Cache.MaxEntries)
	t.Cleanup(c.Stop)
	svc := service.New(cfg, st, c, sched, metrics.NewMonitor(), registry, nil)

	return NewServer(cfg.Server, svc, registry), st
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := testServer(t, testConfig())

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body struct {
		Status string                `json:"status"`
		Jobs   []scheduler.JobStatus `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Len(t, body.Jobs, 3)
}

func TestServer_Dashboard(t *testing.T) {
	srv, st := testServer(t, testConfig())
	st.ReplacePosts(store.KeyRaw, []models.Post{{ID: "r1", Source: models.SourceWeibo}})

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var d models.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.Equal(t, 1, d.TotalData)
	assert.Equal(t, "微博", d.ActivePlatforms)
}

func TestServer_SourceDetail(t *testing.T) {
	srv, _ := testServer(t, testConfig())

	rec := doRequest(t, srv, http.MethodGet, "/api/sources/weibo", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var sum models.SourceSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, models.SourceWeibo, sum.Source)

	rec = doRequest(t, srv, http.MethodGet, "/api/sources/bilibili", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Collect(t *testing.T) {
	srv, st := testServer(t, testConfig())

	rec := doRequest(t, srv, http.MethodPost, "/api/sources/weibo/collect", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.OpResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Collected)
	assert.Equal(t, 2, st.Len(store.KeyRaw))

	rec = doRequest(t, srv, http.MethodPost, "/api/sources/bilibili/collect", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ReviewSubmit(t *testing.T) {
	srv, st := testServer(t, testConfig())
	st.ReplacePosts(store.KeyClassified, []models.Post{
		{ID: "p1", Source: models.SourceWeibo, Status: models.StatusPending},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/review/submit",
		`{"itemId":"p1","action":"approved","comment":"ok"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.OpResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "审核提交成功", res.Message)

	rec = doRequest(t, srv, http.MethodPost, "/api/review/submit", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/review/submit",
		`{"itemId":"missing","action":"approved"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_ExportReport(t *testing.T) {
	srv, st := testServer(t, testConfig())
	st.ReplacePosts(store.KeyClassified, []models.Post{
		{ID: "p1", Title: "内购优惠", Source: models.SourceWeibo, Status: models.StatusPending},
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/export/report", `{"format":"csv"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ID,标题,平台,状态,创建时间"))

	rec = doRequest(t, srv, http.MethodPost, "/api/export/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "last7days", report.DateRange)

	rec = doRequest(t, srv, http.MethodPost, "/api/export/report", `{"format":"xml"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Monitoring(t *testing.T) {
	srv, _ := testServer(t, testConfig())

	rec := doRequest(t, srv, http.MethodGet, "/api/system/monitoring", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snap models.SystemMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.GreaterOrEqual(t, snap.CPU, 30)
	assert.LessOrEqual(t, snap.CPU, 70)
	assert.NotEmpty(t, snap.Timestamp)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitEnabled = true
	cfg.Server.MaxRequests = 2
	cfg.Server.WindowSec = 60
	srv, _ := testServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d within the burst", i+1)
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body["error"])

	// Routes outside /api are never rate limited.
	rec = doRequest(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_NotFound(t *testing.T) {
	srv, _ := testServer(t, testConfig())

	rec := doRequest(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := testServer(t, testConfig())

	// A request through the logging middleware lands in the counter.
	doRequest(t, srv, http.MethodGet, "/api/dashboard", "")

	rec := doRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "epa_http_requests_total")
}
