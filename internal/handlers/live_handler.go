package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/notification-service/internal/realtime"
	"github.com/SAP-F-2025/notification-service/internal/utils"
)

const (
	defaultPongTimeout = 60 * time.Second
	maxClientFrame     = 4096
)

// LiveHandler serves the websocket channel.
type LiveHandler struct {
	BaseHandler
	registry     *realtime.Manager
	verifier     TokenVerifier
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
	pongTimeout  time.Duration
}

func NewLiveHandler(
	registry *realtime.Manager,
	verifier TokenVerifier,
	allowOrigins []string,
	writeTimeout, pongTimeout time.Duration,
	logger utils.Logger,
) *LiveHandler {
	if pongTimeout <= 0 {
		pongTimeout = defaultPongTimeout
	}
	return &LiveHandler{
		BaseHandler: NewBaseHandler(logger),
		registry:    registry,
		verifier:    verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(allowOrigins, r.Header.Get("Origin"))
			},
		},
		writeTimeout: writeTimeout,
		pongTimeout:  pongTimeout,
	}
}

// Connect upgrades the request and registers the connection under the
// token's user id.
// @Summary Live notifications
// @Description Websocket channel. Missing or invalid tokens are closed with code 1008.
// @Tags live
// @Param token query string true "Bearer token"
// @Router /ws/notifications [get]
func (h *LiveHandler) Connect(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.LogError(c, err, "Websocket upgrade failed")
		return
	}
	conn := realtime.NewWebsocketConn(ws, h.writeTimeout)
	logger := utils.GetLogger(c, h.logger)

	token := c.Query("token")
	if token == "" {
		token, _ = bearerToken(c.GetHeader("Authorization"))
	}

	identity, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil || identity.UserID == "" {
		logger.Warn("Rejecting live connection", "error", err)
		_ = conn.WriteClose(websocket.ClosePolicyViolation, "authentication required")
		_ = conn.Close()
		return
	}

	userID := identity.UserID
	logger = logger.With("user_id", userID)

	if prev := h.registry.Register(userID, conn); prev != nil {
		_ = prev.Close()
	}
	defer func() {
		h.registry.Unregister(userID, conn)
		_ = conn.Close()
		logger.Info("Live connection closed")
	}()

	logger.Info("Live connection established", "connections", h.registry.Count())

	if err := conn.WriteJSON(realtime.Message{
		Type:    realtime.MessageConnectionEstablished,
		Message: "Connected to notification service",
	}); err != nil {
		logger.Warn("Failed to send greeting", "error", err)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go h.keepAlive(conn, done)

	h.readLoop(conn, logger)
}

// readLoop consumes client frames until the connection fails or closes.
func (h *LiveHandler) readLoop(conn *realtime.WebsocketConn, logger utils.Logger) {
	ws := conn.Underlying()
	ws.SetReadLimit(maxClientFrame)
	_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("Live read failed", "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))

		var msg realtime.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.WriteJSON(realtime.Message{Type: realtime.MessageError, Message: "malformed frame"})
			continue
		}
		if msg.Type == "ping" {
			if err := conn.WriteJSON(realtime.Message{Type: realtime.MessagePong}); err != nil {
				return
			}
		}
	}
}

// keepAlive pings the client so idle connections keep their read deadline
// fresh.
func (h *LiveHandler) keepAlive(conn *realtime.WebsocketConn, done <-chan struct{}) {
	ticker := time.NewTicker(h.pongTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WritePing(); err != nil {
				return
			}
		}
	}
}
