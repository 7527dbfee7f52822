package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dosh_badges/internal/service"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialEvents(t *testing.T, srv *testServer, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/events" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return srv.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) service.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, messageType)

	var e service.Event
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestEventRoutes_StreamsProgress(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv, "")

	w := srv.do(t, http.MethodPost, "/badges/1/progress", map[string]int{"progress": 4})
	requireStatus(t, w, http.StatusOK)

	e := readEvent(t, conn)
	assert.Equal(t, service.EventProgress, e.Type)
	assert.Equal(t, "1", e.BadgeID)
	require.NotNil(t, e.Progress)
	assert.Equal(t, 4, *e.Progress)
}

func TestEventRoutes_FiltersByBadge(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv, "?badge_id=8")

	requireStatus(t, srv.do(t, http.MethodPost, "/badges/1/progress", map[string]int{"progress": 4}), http.StatusOK)
	requireStatus(t, srv.do(t, http.MethodPost, "/badges/8/lessons/lesson-risk-management/complete", nil), http.StatusOK)

	e := readEvent(t, conn)
	assert.Equal(t, "8", e.BadgeID)
	assert.Equal(t, service.EventProgress, e.Type)
}

func TestEventRoutes_UnsubscribesOnClose(t *testing.T) {
	srv := newTestServer(t)
	conn := dialEvents(t, srv, "")

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))

	assert.Eventually(t, func() bool { return srv.hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
