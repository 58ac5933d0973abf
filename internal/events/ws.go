package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	sharedauth "jobagent-backend/internal/shared/auth"
	"jobagent-backend/internal/shared/metrics"
	"jobagent-backend/internal/shared/telemetry"
)

// Close code sent when the websocket credential is missing or invalid.
// Browsers cannot set headers on websocket requests, so the JWT arrives as a
// query parameter and is verified after the upgrade.
const closeInvalidCredential = 4401

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS middleware for the REST
	// surface; the websocket credential check happens below.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler upgrades connections and attaches them to the hub.
type WSHandler struct {
	Hub *Hub
}

func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

func (h *WSHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.serve)
}

func (h *WSHandler) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		return
	}

	claims, err := sharedauth.VerifyJWT(c.Query("token"))
	if err != nil {
		msg := websocket.FormatCloseMessage(closeInvalidCredential, "invalid credential")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		_ = conn.Close()
		return
	}
	userID := claims.Subject

	sender := newWSSender(conn)
	h.Hub.Subscribe(userID, sender)
	metrics.IncWSConnections(1)
	telemetry.Info("events.ws_connected", map[string]any{"user_id": userID})

	defer func() {
		h.Hub.Unsubscribe(userID, sender)
		metrics.IncWSConnections(-1)
		_ = conn.Close()
		telemetry.Info("events.ws_disconnected", map[string]any{"user_id": userID})
	}()

	go sender.pingLoop()

	// Drain the read side to observe close frames and pongs. Inbound
	// payloads are ignored; the channel is push-only.
	conn.SetReadLimit(1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsSender serializes writes to one websocket connection.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWSSender(conn *websocket.Conn) *wsSender {
	return &wsSender{conn: conn, done: make(chan struct{})}
}

func (s *wsSender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.stop()
		return err
	}
	return nil
}

func (s *wsSender) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				s.stop()
				return
			}
		}
	}
}

func (s *wsSender) stop() {
	s.once.Do(func() { close(s.done) })
}
