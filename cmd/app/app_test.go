package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dosh_badges/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg *Config) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) }
	a, err := newApp(cfg, prometheus.NewRegistry(), clock)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.shutdown(ctx)
	})
	return a
}

func get(a *app, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestApp_Routes(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	a := newTestApp(t, cfg)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{name: "Health", path: "/healthz", expectedStatus: http.StatusOK},
		{name: "Dashboard", path: "/api/v1/dashboard", expectedStatus: http.StatusOK},
		{name: "Badge", path: "/api/v1/badges/1", expectedStatus: http.StatusOK},
		{name: "Unknown route", path: "/api/v1/nowhere", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(a, tt.path)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	w := get(a, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/v1/dashboard",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "badges_claimed_total")
}

func TestApp_RateLimited(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.RateLimit = RateLimitConfig{RPS: 0.001, Burst: 1}
	a := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, get(a, "/api/v1/dashboard").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(a, "/api/v1/dashboard").Code)
	assert.Equal(t, http.StatusOK, get(a, "/healthz").Code)
}

func TestApp_InvalidSeed(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	cfg.Seed.Path = "/does/not/exist.json"

	_, err = newApp(cfg, prometheus.NewRegistry(), time.Now)
	assert.Error(t, err)
}

func TestShareSink_WithoutToken(t *testing.T) {
	assert.IsType(t, service.LogShareSink{}, shareSink(ShareConfig{}))
}
