// Package realtime keeps the process-local registry of live client
// connections.
package realtime

import (
	"errors"
	"log/slog"
	"sync"
)

// ErrNotConnected is returned by Send when the user has no live connection.
var ErrNotConnected = errors.New("user not connected")

// Conn is a live connection that can receive JSON frames.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Manager maps user ids to their single live connection. The last
// connection registered for a user wins.
type Manager struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	logger *slog.Logger
}

func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		conns:  make(map[string]Conn),
		logger: logger,
	}
}

// Register binds conn to userID and returns the connection it replaced, if
// any. The caller owns closing the replaced connection.
func (m *Manager) Register(userID string, conn Conn) Conn {
	m.mu.Lock()
	prev := m.conns[userID]
	m.conns[userID] = conn
	m.mu.Unlock()

	if prev != nil && prev != conn {
		m.logger.Info("Live connection replaced", "user_id", userID)
		return prev
	}
	return nil
}

// Unregister removes userID only while it is still bound to conn, so a
// stale connection closing late cannot evict its replacement.
func (m *Manager) Unregister(userID string, conn Conn) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.conns[userID]; ok && current == conn {
		delete(m.conns, userID)
		return true
	}
	return false
}

// Get returns the connection bound to userID.
func (m *Manager) Get(userID string) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	conn, ok := m.conns[userID]
	return conn, ok
}

// SendIfPresent writes msg to the user's connection. It reports false with
// a nil error when the user is not connected.
func (m *Manager) SendIfPresent(userID string, msg interface{}) (bool, error) {
	conn, ok := m.Get(userID)
	if !ok {
		return false, nil
	}
	if err := conn.WriteJSON(msg); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) Connected(userID string) bool {
	_, ok := m.Get(userID)
	return ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll closes and forgets every connection.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]Conn)
	m.mu.Unlock()

	for userID, conn := range conns {
		if err := conn.Close(); err != nil {
			m.logger.Debug("Failed to close live connection", "user_id", userID, "error", err)
		}
	}
}
