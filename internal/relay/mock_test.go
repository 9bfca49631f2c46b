package relay

import (
	"encoding/json"
	"sync"
)

type mockConn struct {
	mu       sync.Mutex
	received [][]byte
	closed   bool
	sendErr  error
}

func newMockConn() *mockConn { return &mockConn{} }

func (m *mockConn) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) frames() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, 0, len(m.received))
	for _, b := range m.received {
		var v map[string]any
		_ = json.Unmarshal(b, &v)
		out = append(out, v)
	}
	return out
}

func (m *mockConn) framesOfType(typ string) []map[string]any {
	var out []map[string]any
	for _, f := range m.frames() {
		if f["type"] == typ {
			out = append(out, f)
		}
	}
	return out
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = nil
}
