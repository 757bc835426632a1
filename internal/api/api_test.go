package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/core/agg"
	"github.com/huangsam/runlens/internal/catalog"
	"github.com/huangsam/runlens/internal/iocache"
	"github.com/huangsam/runlens/internal/metrics"
	"github.com/huangsam/runlens/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

// fakeCatalog records reconfigurations and delegates Configured to a memory store.
type fakeCatalog struct {
	store   *catalog.MemoryStore
	backend schema.DatabaseBackend
	dsn     string
	err     error
}

func (f *fakeCatalog) Configure(_ context.Context, backend schema.DatabaseBackend, dsn string) error {
	if f.err != nil {
		return f.err
	}
	f.backend, f.dsn = backend, dsn
	f.store.SetConfigured(true)
	return nil
}

func (f *fakeCatalog) ConfigStatus() schema.ConfigStatus {
	return schema.ConfigStatus{Configured: f.store.Configured(), Backend: string(f.backend), Server: f.dsn}
}

func (f *fakeCatalog) Configured() bool { return f.store.Configured() }

func newTestHandler(t *testing.T) (*Handler, *fakeCatalog, *core.Aggregator) {
	t.Helper()
	var execs []schema.ExecutionRecord
	for i, name := range []string{"CR_Load", "CR_Load", "EDS_Feed", "HIM_Import"} {
		start := testNow.Add(-time.Duration(i+1) * time.Hour)
		end := start.Add(5 * time.Minute)
		execs = append(execs, schema.ExecutionRecord{
			ExecutionID: int64(i + 1), PackageName: name, Status: schema.StatusSucceeded, StartTime: start, EndTime: &end,
		})
	}
	store := catalog.NewMemoryStore(execs, nil)

	mockClock := clock.NewMock()
	mockClock.Set(testNow)
	aggregator := core.NewAggregator(
		agg.NewEngine(store, agg.WithClock(mockClock)),
		iocache.NewResultCache(iocache.WithClock(mockClock)),
	)
	cat := &fakeCatalog{store: store, backend: schema.SQLiteBackend, dsn: "demo.db"}

	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	return New(aggregator, cat, WithGatherer(reg)), cat, aggregator
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body["error"]
}

func TestMetricEndpoints(t *testing.T) {
	h, _, _ := newTestHandler(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"dashboard metric", "/api/dashboard/metrics", http.StatusOK},
		{"partitioned metric", "/api/dashboard/trends?businessUnit=EDS", http.StatusOK},
		{"analytics metric", "/api/analytics/heatmap", http.StatusOK},
		{"unknown metric", "/api/dashboard/bogus", http.StatusNotFound},
		{"analytics metric on the dashboard route", "/api/dashboard/heatmap", http.StatusNotFound},
		{"dashboard metric on the analytics route", "/api/analytics/metrics", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, rr.Code, rr.Body.String())
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		})
	}

	rr := do(h, http.MethodGet, "/api/dashboard/metrics?businessUnit=ClientRepo", "")
	var m schema.ExecutionMetrics
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	assert.Equal(t, 2, m.TotalExecutions)
	assert.Equal(t, 100.0, m.SuccessRate)
}

func TestBulkEndpoints(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rr := do(h, http.MethodGet, "/api/dashboard?businessUnit=eds", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var snap schema.DashboardSnapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.Equal(t, "EDS", snap.BusinessUnit)
	assert.Equal(t, 1, snap.Metrics.TotalExecutions)

	rr = do(h, http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var adv schema.AdvancedSnapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&adv))
	assert.Equal(t, testNow, adv.GeneratedAt)

	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/api/dashboard", "").Code)
}

func TestErrorMapping(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		h, cat, _ := newTestHandler(t)
		cat.store.SetConfigured(false)
		for _, path := range []string{"/api/dashboard", "/api/dashboard/metrics", "/api/analytics/mtbf"} {
			rr := do(h, http.MethodGet, path, "")
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "Not configured", errorOf(t, rr))
		}
	})

	t.Run("query failure", func(t *testing.T) {
		h, cat, _ := newTestHandler(t)
		cat.store.SetError(errors.New("timeout"))
		tests := map[string]string{
			"/api/dashboard/metrics":        "Failed to fetch metrics",
			"/api/dashboard/last_executed":  "Failed to fetch last executed",
			"/api/analytics/sla_compliance": "Failed to fetch sla compliance",
			"/api/dashboard":                "Failed to fetch dashboard",
			"/api/analytics":                "Failed to fetch analytics",
		}
		for path, want := range tests {
			rr := do(h, http.MethodGet, path, "")
			assert.Equal(t, http.StatusInternalServerError, rr.Code, path)
			assert.Equal(t, want, errorOf(t, rr), path)
		}
	})
}

func TestConfigEndpoints(t *testing.T) {
	h, cat, aggregator := newTestHandler(t)

	rr := do(h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var status schema.ConfigStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
	assert.True(t, status.Configured)
	assert.Equal(t, "sqlite", status.Backend)

	// Warm the cache so the reconfiguration has something to drop.
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/dashboard/metrics", "").Code)
	require.Equal(t, 1, aggregator.CacheStatus().Entries)

	rr = do(h, http.MethodPost, "/api/config", `{"serverName":"ssis01"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, schema.SQLServerBackend, cat.backend)
	assert.True(t, strings.HasPrefix(cat.dsn, "sqlserver://ssis01?"))
	assert.Contains(t, cat.dsn, "database=SSISDB")
	assert.Zero(t, aggregator.CacheStatus().Entries)

	bad := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown backend", `{"backend":"oracle"}`},
		{"server name on another backend", `{"backend":"postgresql","serverName":"db"}`},
		{"invalid dsn", `{"backend":"mysql","connectionString":"nope"}`},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(h, http.MethodPost, "/api/config", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, errorOf(t, rr))
		})
	}

	cat.err = errors.New("connection refused")
	rr = do(h, http.MethodPost, "/api/config", `{"backend":"sqlite","connectionString":"other.db"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, errorOf(t, rr), "connection refused")
}

func TestOperationalEndpoints(t *testing.T) {
	h, cat, _ := newTestHandler(t)

	rr := do(h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"ok"`)

	_ = do(h, http.MethodGet, "/api/analytics", "")
	rr = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "runlens_load_seconds")

	rr = do(h, http.MethodGet, "/api/cache", "")
	var cs schema.CacheStatus
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cs))
	assert.Equal(t, 8, cs.Entries)

	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, "/api/cache", "").Code)

	cat.store.SetConfigured(false)
	assert.Contains(t, do(h, http.MethodGet, "/healthz", "").Body.String(), "unconfigured")
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/nowhere", "").Code)
}
