package api

import (
	"net/http"
	"time"

	"dosh_badges/internal/service"
	"dosh_badges/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type eventRoutes struct {
	hub *service.Hub
}

func NewEventRoutes(handler *gin.RouterGroup, hub *service.Hub) {
	r := &eventRoutes{hub: hub}
	handler.GET("/events", r.handleWebSocket)
}

// handleWebSocket streams progress events to the client. The optional
// badge_id and user_id query parameters narrow the stream.
func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	log := logger.Named("events")
	badgeID, userID := c.Query("badge_id"), c.Query("user_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	events, unsubscribe := r.hub.Subscribe()
	closed := make(chan struct{})
	go readLoop(conn, closed)

	writeLoop(conn, events, closed, func(e service.Event) bool {
		return (badgeID == "" || e.BadgeID == badgeID) && (userID == "" || e.UserID == userID)
	})

	unsubscribe()
	conn.Close()
}

// readLoop drains client frames so that control frames are handled, and
// signals when the client goes away.
func readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	log := logger.Named("events")
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func writeLoop(conn *websocket.Conn, events <-chan service.Event, closed <-chan struct{}, keep func(service.Event) bool) {
	log := logger.Named("events")

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return

		case e, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if !keep(e) {
				continue
			}

			data, err := json.Marshal(e)
			if err != nil {
				log.Error("failed to marshal event", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("failed to write event", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
