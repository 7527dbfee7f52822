package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dosh_badges/internal/repository"
	"dosh_badges/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router  *gin.Engine
	hub     *service.Hub
	actions *service.ActionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := repository.LoadSeed("")
	require.NoError(t, err)
	repo, err := repository.NewSeeded(seed)
	require.NoError(t, err)

	clock := func() time.Time { return fixedNow }
	hub := service.NewHub()
	metrics := service.NewMetrics(prometheus.NewRegistry())

	opts := service.DefaultOptions()
	opts.Delays = service.ActionDelays{Code: 10 * time.Millisecond, Evidence: 10 * time.Millisecond, Tool: 10 * time.Millisecond}

	badges := service.NewBadgeService(repo, repo, hub, metrics, clock, opts)
	actions := service.NewActionService(repo, hub, metrics, clock, opts)
	referrals := service.NewReferralService(repo, repo, service.LogShareSink{}, hub, metrics, clock, opts)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = actions.Shutdown(ctx)
		hub.Close()
	})

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewBadgeRoutes(v1, badges)
	NewActionRoutes(v1, actions)
	NewReferralRoutes(v1, referrals)
	NewEventRoutes(v1, hub)

	return &testServer{router: router, hub: hub, actions: actions}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		if raw, ok := body.(string); ok {
			payload = []byte(raw)
		} else {
			payload, err = json.Marshal(body)
			require.NoError(t, err)
		}
	}

	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

func TestRespondError_UnknownError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, context.DeadlineExceeded, "failed to do thing")

	requireStatus(t, w, http.StatusInternalServerError)
	require.Equal(t, "failed to do thing", errorBody(t, w))
}
