package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeConn struct {
	mu      sync.Mutex
	written []interface{}
	closed  bool
	failOn  error
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != nil {
		return f.failOn
	}
	f.written = append(f.written, v)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestManager_RegisterAndSend(t *testing.T) {
	m := NewManager(nil)
	conn := &fakeConn{}

	if prev := m.Register("7", conn); prev != nil {
		t.Fatal("first registration should not replace anything")
	}
	if !m.Connected("7") || m.Count() != 1 {
		t.Fatal("user 7 should be connected")
	}

	sent, err := m.SendIfPresent("7", Message{Type: MessageNotification})
	if err != nil || !sent {
		t.Fatalf("SendIfPresent = %v, %v", sent, err)
	}
	if conn.count() != 1 {
		t.Errorf("expected one frame, got %d", conn.count())
	}
}

func TestManager_SendToAbsentUser(t *testing.T) {
	m := NewManager(nil)

	sent, err := m.SendIfPresent("nobody", Message{Type: MessageNotification})
	if err != nil {
		t.Errorf("absent user must not be an error, got %v", err)
	}
	if sent {
		t.Error("absent user must not be reported as sent")
	}
}

func TestManager_SendError(t *testing.T) {
	m := NewManager(nil)
	writeErr := errors.New("broken pipe")
	m.Register("7", &fakeConn{failOn: writeErr})

	sent, err := m.SendIfPresent("7", Message{})
	if sent || !errors.Is(err, writeErr) {
		t.Errorf("SendIfPresent = %v, %v", sent, err)
	}
}

func TestManager_LastConnectWins(t *testing.T) {
	m := NewManager(nil)
	first := &fakeConn{}
	second := &fakeConn{}

	m.Register("7", first)
	prev := m.Register("7", second)
	if prev != first {
		t.Fatal("second registration should return the first connection")
	}

	// The first connection's read loop ends later and tries to unregister.
	if m.Unregister("7", first) {
		t.Error("stale connection must not unregister its replacement")
	}
	if conn, _ := m.Get("7"); conn != second {
		t.Error("second connection should still be registered")
	}

	m.SendIfPresent("7", Message{Type: MessageNotification})
	if first.count() != 0 || second.count() != 1 {
		t.Errorf("frames: first=%d second=%d", first.count(), second.count())
	}

	if !m.Unregister("7", second) {
		t.Error("current connection should unregister")
	}
	if m.Connected("7") {
		t.Error("user should be disconnected")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(nil)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%10)
			conn := &fakeConn{}
			m.Register(userID, conn)
			m.SendIfPresent(userID, Message{Type: MessageNotification})
			m.Connected(userID)
			m.Count()
			m.Unregister(userID, conn)
		}(i)
	}
	wg.Wait()

	if m.Count() > 10 {
		t.Errorf("count %d exceeds number of distinct users", m.Count())
	}
}

func TestManager_CloseAll(t *testing.T) {
	m := NewManager(nil)
	a, b := &fakeConn{}, &fakeConn{}
	m.Register("a", a)
	m.Register("b", b)

	m.CloseAll()

	if m.Count() != 0 {
		t.Error("registry should be empty")
	}
	if !a.closed || !b.closed {
		t.Error("all connections should be closed")
	}
}
