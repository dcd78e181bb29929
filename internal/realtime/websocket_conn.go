package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const defaultWriteTimeout = 10 * time.Second

// WebsocketConn serialises writes to a gorilla connection, which supports
// only one concurrent writer.
type WebsocketConn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

func NewWebsocketConn(ws *websocket.Conn, writeTimeout time.Duration) *WebsocketConn {
	if writeTimeout <= 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &WebsocketConn{ws: ws, writeTimeout: writeTimeout}
}

func (c *WebsocketConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteJSON(v)
}

// WriteClose sends a close frame with the given code and reason.
func (c *WebsocketConn) WriteClose(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	return c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(c.writeTimeout),
	)
}

func (c *WebsocketConn) WritePing() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *WebsocketConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.ws.Close()
}

// Underlying exposes the raw connection for the read loop.
func (c *WebsocketConn) Underlying() *websocket.Conn {
	return c.ws
}
