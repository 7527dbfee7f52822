package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router *gin.Engine, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMonitoring_Handler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMonitoring(prometheus.NewRegistry())

	router := gin.New()
	router.Use(m.Handler())
	router.GET("/badges/:badge_id", func(c *gin.Context) {
		if c.Param("badge_id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	serve(router, "/badges/1", "")
	serve(router, "/badges/2", "")
	serve(router, "/badges/missing", "")
	serve(router, "/nowhere", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/badges/:badge_id", http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/badges/:badge_id", http.MethodGet, "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unmatched", http.MethodGet, "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestRateLimiter_Handler(t *testing.T) {
	tests := []struct {
		name             string
		burst            int
		requests         int
		expectedRejected int
	}{
		{name: "Within burst", burst: 3, requests: 3, expectedRejected: 0},
		{name: "Over burst", burst: 2, requests: 5, expectedRejected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			rl := NewRateLimiter(0.001, tt.burst)

			router := gin.New()
			router.Use(rl.Handler())
			router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

			rejected := 0
			for i := 0; i < tt.requests; i++ {
				if serve(router, "/ping", "10.0.0.1:1234").Code == http.StatusTooManyRequests {
					rejected++
				}
			}
			assert.Equal(t, tt.expectedRejected, rejected)

			assert.Equal(t, http.StatusOK, serve(router, "/ping", "10.0.0.2:1234").Code)
			assert.Equal(t, 2, rl.Visitors())
		})
	}
}

func TestRateLimiter_Evict(t *testing.T) {
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	rl.limiter("10.0.0.2")
	now = now.Add(2 * time.Minute)

	rl.evict()

	require.Equal(t, 1, rl.Visitors())
	_, kept := rl.visitors["10.0.0.2"]
	assert.True(t, kept)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
	}{
		{name: "Generates id"},
		{name: "Keeps caller id", requestID: "abc-123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.Use(RequestLogger())
			router.GET("/ping", func(c *gin.Context) {
				assert.NotEmpty(t, c.GetString("request_id"))
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.requestID != "" {
				req.Header.Set(HeaderXRequestID, tt.requestID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			got := w.Header().Get(HeaderXRequestID)
			require.NotEmpty(t, got)
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, got)
			}
		})
	}
}
