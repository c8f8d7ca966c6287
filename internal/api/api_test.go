package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Egham-7/pitchside/internal/models"
	"github.com/Egham-7/pitchside/internal/services/answer_cache"
	"github.com/Egham-7/pitchside/internal/services/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	resp      *models.AnswerResponse
	err       error
	got       models.AnswerRequest
	requestID string
}

func (s *stubAnswerer) Answer(_ context.Context, req models.AnswerRequest, requestID string) (*models.AnswerResponse, error) {
	s.got = req
	s.requestID = requestID
	return s.resp, s.err
}

type stubCacheAdmin struct {
	purged  bool
	removed string
	err     error
}

func (s *stubCacheAdmin) Stats() answer_cache.Stats { return answer_cache.Stats{Lookups: 3, Hits: 2} }
func (s *stubCacheAdmin) Purge(context.Context) error {
	s.purged = true
	return s.err
}

func (s *stubCacheAdmin) Remove(_ context.Context, query string) error {
	s.removed = query
	return s.err
}

type stubUsage struct{ since time.Time }

func (s *stubUsage) Stats(_ context.Context, since time.Time) (*models.AnswerStats, error) {
	s.since = since
	return &models.AnswerStats{TotalQueries: 10, CacheHits: 4, HitRate: 0.4}, nil
}

func (s *stubUsage) Recent(_ context.Context, limit int) ([]models.AnswerLog, error) {
	return make([]models.AnswerLog, limit), nil
}

type stubPinger struct{ err error }

type stubCacheStatus bool

func (s stubCacheStatus) Enabled() bool { return bool(s) }

func (p stubPinger) Ping(context.Context) error { return p.err }

func doJSON(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, []byte, map[string][]string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data, resp.Header
}

func TestAnswerHandler(t *testing.T) {
	stub := &stubAnswerer{resp: &models.AnswerResponse{
		Answer:      "손흥민은 최근 5경기 3골",
		CacheHit:    true,
		CacheSource: models.CacheSourceChroma,
		Confidence:  0.97,
		CostSaved:   0.0012,
	}}
	app := fiber.New()
	app.Post("/v1/answer", NewAnswerHandler(stub).Answer)

	status, body, header := doJSON(t, app, "POST", "/v1/answer", `{"query":"손흥민 최근 폼은?","top_k":3}`,
		map[string]string{"X-Request-ID": "client-42"})
	require.Equal(t, fiber.StatusOK, status)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, true, got["cache_hit"])
	assert.Equal(t, "chromadb", got["cache_source"])
	assert.InDelta(t, 0.97, got["confidence"], 1e-9)
	assert.Contains(t, got, "cost_saved")

	assert.Equal(t, "손흥민 최근 폼은?", stub.got.Query)
	assert.Equal(t, 3, stub.got.TopK)
	assert.Equal(t, "client-42", stub.requestID)
	assert.Equal(t, "client-42", header["X-Request-Id"][0])
}

func TestAnswerHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantType string
	}{
		{"malformed body", `{"query":`, nil, fiber.StatusBadRequest, "validation"},
		{"provider failure", `{"query":"q"}`, models.NewProviderError("openai", "upstream 500", errors.New("secret detail")), fiber.StatusBadGateway, "provider"},
		{"timeout", `{"query":"q"}`, models.NewTimeoutError("generation", nil), fiber.StatusGatewayTimeout, "timeout"},
		{"breaker open", `{"query":"q"}`, models.NewCircuitBreakerError("openai"), fiber.StatusServiceUnavailable, "circuit_breaker"},
		{"plain error", `{"query":"q"}`, errors.New("boom"), fiber.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/v1/answer", NewAnswerHandler(&stubAnswerer{err: tt.err}).Answer)

			status, body, _ := doJSON(t, app, "POST", "/v1/answer", tt.body, nil)
			assert.Equal(t, tt.wantCode, status)

			var envelope response.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &envelope))
			assert.Equal(t, tt.wantType, envelope.Error.Type)
			assert.NotContains(t, string(body), "secret detail")
		})
	}
}

func TestAdminHandler(t *testing.T) {
	cache := &stubCacheAdmin{}
	usage := &stubUsage{}
	h := NewAdminHandler(cache, usage)

	app := fiber.New()
	app.Get("/admin/cache/stats", h.CacheStats)
	app.Delete("/admin/cache", h.PurgeCache)
	app.Delete("/admin/cache/entry", h.RemoveEntry)
	app.Get("/admin/usage/stats", h.UsageStats)
	app.Get("/admin/usage/recent", h.RecentAnswers)

	status, body, _ := doJSON(t, app, "GET", "/admin/cache/stats", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"hits":2`)

	status, _, _ = doJSON(t, app, "DELETE", "/admin/cache", "", nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.True(t, cache.purged)

	status, _, _ = doJSON(t, app, "DELETE", "/admin/cache/entry", `{"query":"Arsenal News"}`, nil)
	assert.Equal(t, fiber.StatusNoContent, status)
	assert.Equal(t, "Arsenal News", cache.removed)

	status, _, _ = doJSON(t, app, "DELETE", "/admin/cache/entry", `{"query":"  "}`, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	before := time.Now()
	status, body, _ = doJSON(t, app, "GET", "/admin/usage/stats?window=1h", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"hit_rate":0.4`)
	assert.WithinDuration(t, before.Add(-time.Hour), usage.since, 5*time.Second)

	status, _, _ = doJSON(t, app, "GET", "/admin/usage/stats?window=bogus", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body, _ = doJSON(t, app, "GET", "/admin/usage/recent?limit=2", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	var logs []models.AnswerLog
	require.NoError(t, json.Unmarshal(body, &logs))
	assert.Len(t, logs, 2)

	status, _, _ = doJSON(t, app, "GET", "/admin/usage/recent?limit=0", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminHandler_UsageDisabled(t *testing.T) {
	app := fiber.New()
	app.Get("/admin/usage/stats", NewAdminHandler(&stubCacheAdmin{}, nil).UsageStats)

	status, _, _ := doJSON(t, app, "GET", "/admin/usage/stats", "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no dependencies", nil, fiber.StatusOK, "disabled"},
		{"database up", stubPinger{}, fiber.StatusOK, "healthy"},
		{"database down", stubPinger{err: errors.New("refused")}, fiber.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/health", NewHealthHandler(nil, tt.db, nil).WithCache(stubCacheStatus(true)).HealthCheck)

			status, body, _ := doJSON(t, app, "GET", "/health", "", nil)
			assert.Equal(t, tt.wantStatus, status)

			var got struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, "disabled", got.Checks["redis"])
			assert.Equal(t, tt.wantDB, got.Checks["database"])
			assert.Equal(t, "enabled", got.Checks["answer_cache"])
		})
	}
}
