package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-valuation/internal/api/handlers"
	"github.com/wonny/aegis-valuation/internal/contracts"
	"github.com/wonny/aegis-valuation/internal/engineconfig"
	"github.com/wonny/aegis-valuation/internal/pipeline"
	"github.com/wonny/aegis-valuation/internal/snapshot"
	"github.com/wonny/aegis-valuation/pkg/logger"
)

const fixtureDir = "../snapshot/testdata"

func newTestEngine(t *testing.T) *pipeline.Engine {
	t.Helper()
	engine, err := pipeline.NewEngine(engineconfig.Default(), logger.Nop())
	require.NoError(t, err)
	return engine
}

// memReports is an in-memory ReportCache
type memReports struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemReports() *memReports {
	return &memReports{data: make(map[string][]byte)}
}

func (m *memReports) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memReports) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	m.sets++
	return nil
}

type requestLog struct {
	mu     sync.Mutex
	routes []string
	status []int
}

func (r *requestLog) RecordRequest(route, method string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, method+" "+route)
	r.status = append(r.status, status)
}

type denyAll struct{ err error }

func (d denyAll) Allow(context.Context, string) (bool, error) { return false, d.err }

func newTestRouter(t *testing.T, deps RouterDeps) http.Handler {
	t.Helper()
	if deps.Analyze == nil {
		deps.Analyze = handlers.NewAnalyzeHandler(newTestEngine(t), snapshot.NewFileSource(fixtureDir), nil, 5*time.Second, logger.Nop())
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return NewRouter(deps)
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestRouter(t, RouterDeps{}), "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAnalyzeCode(t *testing.T) {
	h := newTestRouter(t, RouterDeps{})

	rec := serve(h, "GET", "/api/analyze/005930", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "005930", report.Code)
	assert.NotEmpty(t, report.ConfigHash)
	require.NotNil(t, report.Recommendation)
	assert.NotEmpty(t, report.Recommendation.Thesis)
}

func TestAnalyzeCodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		status int
	}{
		{name: "unknown code", target: "/api/analyze/999999", status: http.StatusNotFound},
		{name: "bad as_of", target: "/api/analyze/005930?as_of=20240630", status: http.StatusBadRequest},
		{name: "bad code pattern", target: "/api/analyze/00%2F59", status: http.StatusNotFound},
	}

	h := newTestRouter(t, RouterDeps{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, "GET", tt.target, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAnalyzeCodeWithoutSource(t *testing.T) {
	analyze := handlers.NewAnalyzeHandler(newTestEngine(t), nil, nil, 0, logger.Nop())
	h := newTestRouter(t, RouterDeps{Analyze: analyze})

	rec := serve(h, "GET", "/api/analyze/005930", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyzeCodeReportCache(t *testing.T) {
	reports := newMemReports()
	analyze := handlers.NewAnalyzeHandler(newTestEngine(t), snapshot.NewFileSource(fixtureDir), reports, 0, logger.Nop())
	h := newTestRouter(t, RouterDeps{Analyze: analyze})

	first := serve(h, "GET", "/api/analyze/005930", "")
	second := serve(h, "GET", "/api/analyze/005930", "")

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, reports.sets, "second request must be served from cache")
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestAnalyzeSnapshot(t *testing.T) {
	snap, err := snapshot.ReadFile(fixtureDir + "/005930.json")
	require.NoError(t, err)
	body, err := json.Marshal(snap)
	require.NoError(t, err)

	h := newTestRouter(t, RouterDeps{})
	rec := serve(h, "POST", "/api/analyze", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report pipeline.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, snap.Code, report.Code)
}

func TestAnalyzeSnapshotErrors(t *testing.T) {
	snap, err := snapshot.ReadFile(fixtureDir + "/005930.json")
	require.NoError(t, err)
	snap.Contributions = append(snap.Contributions, contracts.Positive(contracts.SignalDCF, "forged"))
	reserved, err := json.Marshal(snap)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "not json", body: "{", status: http.StatusBadRequest},
		{name: "unknown field", body: `{"code":"A","bogus":1}`, status: http.StatusBadRequest},
		{name: "missing code", body: `{"current_price":10}`, status: http.StatusBadRequest},
		{name: "reserved signal name", body: string(reserved), status: http.StatusUnprocessableEntity},
	}

	h := newTestRouter(t, RouterDeps{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, "POST", "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var body handlers.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetConfig(t *testing.T) {
	engine := newTestEngine(t)
	analyze := handlers.NewAnalyzeHandler(engine, nil, nil, 0, logger.Nop())
	h := newTestRouter(t, RouterDeps{Analyze: analyze})

	rec := serve(h, "GET", "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body handlers.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, engine.ConfigHash(), body.ConfigHash)
	assert.Equal(t, engine.Config().Synthesis, body.Config.Synthesis)
}

func TestRateLimit(t *testing.T) {
	t.Run("rejected", func(t *testing.T) {
		h := newTestRouter(t, RouterDeps{Limiter: denyAll{}})

		rec := serve(h, "GET", "/api/config", "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("Retry-After"))

		// health is outside /api
		assert.Equal(t, http.StatusOK, serve(h, "GET", "/health", "").Code)
	})

	t.Run("limiter failure lets requests through", func(t *testing.T) {
		h := newTestRouter(t, RouterDeps{Limiter: denyAll{err: errors.New("redis down")}})

		rec := serve(h, "GET", "/api/config", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("local token bucket", func(t *testing.T) {
		h := newTestRouter(t, RouterDeps{Limiter: NewLocalLimiter(0.001, 2)})

		assert.Equal(t, http.StatusOK, serve(h, "GET", "/api/config", "").Code)
		assert.Equal(t, http.StatusOK, serve(h, "GET", "/api/config", "").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(h, "GET", "/api/config", "").Code)
	})
}

func TestLocalLimiterPerClient(t *testing.T) {
	l := NewLocalLimiter(0.001, 1)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, ok, "budgets are per client")
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLocalLimiterEvictsIdleClients(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLocalLimiter(1, 2)
	l.now = clock.Now
	ctx := context.Background()

	l.Allow(ctx, "10.0.0.1")
	l.Allow(ctx, "10.0.0.2")
	assert.Equal(t, 2, l.Len())

	clock.Advance(5 * time.Minute)
	l.Allow(ctx, "10.0.0.2")

	clock.Advance(6 * time.Minute)
	ok, err := l.Allow(ctx, "10.0.0.3")
	require.NoError(t, err)
	assert.True(t, ok)

	// .1 idle 11m → dropped, .2 idle 6m → kept
	assert.Equal(t, 2, l.Len())
	l.mu.Lock()
	_, stale := l.clients["10.0.0.1"]
	_, active := l.clients["10.0.0.2"]
	l.mu.Unlock()
	assert.False(t, stale)
	assert.True(t, active)
}

func TestLocalLimiterEvictionNeverRefills(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	l := NewLocalLimiter(0.001, 1)
	l.now = clock.Now
	ctx := context.Background()

	// bucket refills in 1000s, longer than the default idle ttl
	assert.Equal(t, 1000*time.Second, l.ttl)

	ok, _ := l.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)

	clock.Advance(11 * time.Minute)
	ok, _ = l.Allow(ctx, "10.0.0.1")
	assert.False(t, ok, "client must not get a fresh bucket before its own refills")
}

func TestRequestMetricsUseRouteTemplate(t *testing.T) {
	log := &requestLog{}
	h := newTestRouter(t, RouterDeps{Recorder: log})

	serve(h, "GET", "/api/analyze/005930", "")
	serve(h, "GET", "/api/analyze/999999", "")

	require.Len(t, log.routes, 2)
	for _, route := range log.routes {
		assert.Equal(t, "GET /api/analyze/{code:[A-Za-z0-9._-]+}", route)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusNotFound}, log.status)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("aegis_up 1\n"))
	})
	h := newTestRouter(t, RouterDeps{Metrics: metrics})

	rec := serve(h, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aegis_up")

	// not exposed without a handler
	assert.Equal(t, http.StatusNotFound, serve(newTestRouter(t, RouterDeps{}), "GET", "/metrics", "").Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := recoveryMiddleware(logger.Nop())(panicky)

	rec := serve(h, "GET", "/anything", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientKey(req))

	req.RemoteAddr = "unix"
	assert.Equal(t, "unix", clientKey(req))
}
