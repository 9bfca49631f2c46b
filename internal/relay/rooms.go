package relay

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/lucas-remigio/graocerto.pt/internal/metrics"
)

// RoomStat is a room key with its member count.
type RoomStat struct {
	Key     string `json:"email"`
	Members int    `json:"clients"`
}

// Delivery summarises one broadcast.
type Delivery struct {
	Delivered int
	Skipped   int // member not open any more
	Failed    int
}

// Directory maps a room key to the set of connections joined to it.
// A room exists only while it has members.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]map[Conn]struct{})}
}

func (d *Directory) Join(room string, c Conn) {
	d.mu.Lock()
	rs, ok := d.rooms[room]
	if !ok {
		rs = make(map[Conn]struct{})
		d.rooms[room] = rs
		metrics.Rooms.Inc()
	}
	rs[c] = struct{}{}
	d.mu.Unlock()
}

// Leave removes c from room and reports whether the room was deleted as a result.
func (d *Directory) Leave(room string, c Conn) bool {
	d.mu.Lock()
	rs, ok := d.rooms[room]
	if !ok {
		d.mu.Unlock()
		return false
	}
	delete(rs, c)
	removed := len(rs) == 0
	if removed {
		delete(d.rooms, room)
		metrics.Rooms.Dec()
	}
	d.mu.Unlock()

	if removed {
		slog.Info("room removed", "room", room)
	}
	return removed
}

// Broadcast sends payload to every member of room except exclude.
// A missing room is not an error. Sends happen outside the lock and a
// failing member never stops delivery to the rest.
func (d *Directory) Broadcast(room string, payload []byte, exclude Conn) Delivery {
	members := d.Members(room)

	var res Delivery
	for _, c := range members {
		if exclude != nil && c == exclude {
			continue
		}
		if !c.Open() {
			res.Skipped++
			continue
		}
		if err := c.Send(payload); err != nil {
			res.Failed++
			slog.Warn("broadcast send failed", "room", room, "err", err)
			continue
		}
		res.Delivered++
	}

	metrics.Deliveries.WithLabelValues("delivered").Add(float64(res.Delivered))
	metrics.Deliveries.WithLabelValues("skipped").Add(float64(res.Skipped))
	metrics.Deliveries.WithLabelValues("failed").Add(float64(res.Failed))
	return res
}

// Members returns a copy of the member set of room.
func (d *Directory) Members(room string) []Conn {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rs := d.rooms[room]
	out := make([]Conn, 0, len(rs))
	for c := range rs {
		out = append(out, c)
	}
	return out
}

func (d *Directory) Snapshot() []RoomStat {
	d.mu.RLock()
	out := make([]RoomStat, 0, len(d.rooms))
	for key, rs := range d.rooms {
		out = append(out, RoomStat{Key: key, Members: len(rs)})
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
