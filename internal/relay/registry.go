package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lucas-remigio/graocerto.pt/internal/metrics"
)

// ConnMeta is what the relay knows about a connection. Room is empty until join_room.
type ConnMeta struct {
	ID          string
	Room        string
	ConnectedAt time.Time
}

// Registry maps live connections to their metadata.
type Registry struct {
	mu    sync.RWMutex
	conns map[Conn]*ConnMeta
	newID func() string
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[Conn]*ConnMeta),
		newID: uuid.NewString,
	}
}

// Register stores c and returns its assigned id.
func (r *Registry) Register(c Conn) string {
	meta := &ConnMeta{ID: r.newID(), ConnectedAt: time.Now()}

	r.mu.Lock()
	r.conns[c] = meta
	metrics.Connections.Inc()
	r.mu.Unlock()

	return meta.ID
}

func (r *Registry) Lookup(c Conn) (ConnMeta, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, ok := r.conns[c]
	if !ok {
		return ConnMeta{}, false
	}
	return *meta, true
}

// SetRoom records room as the connection's current room and returns the previous one.
func (r *Registry) SetRoom(c Conn, room string) (prev string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, ok := r.conns[c]
	if !ok {
		return "", false
	}
	prev, meta.Room = meta.Room, room
	return prev, true
}

// Unregister drops c. Only the first call for a connection reports ok.
func (r *Registry) Unregister(c Conn) (ConnMeta, bool) {
	r.mu.Lock()
	meta, ok := r.conns[c]
	if ok {
		delete(r.conns, c)
		metrics.Connections.Dec()
	}
	r.mu.Unlock()

	if !ok {
		return ConnMeta{}, false
	}
	return *meta, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Each calls fn for a snapshot of the registered connections, outside the lock.
func (r *Registry) Each(fn func(Conn, ConnMeta)) {
	r.mu.RLock()
	type entry struct {
		c    Conn
		meta ConnMeta
	}
	entries := make([]entry, 0, len(r.conns))
	for c, meta := range r.conns {
		entries = append(entries, entry{c: c, meta: *meta})
	}
	r.mu.RUnlock()

	for _, e := range entries {
		fn(e.c, e.meta)
	}
}
