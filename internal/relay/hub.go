package relay

import (
	"log/slog"
	"sort"
)

// Hub owns the registry, the room directory and the router for the lifetime of the process.
type Hub struct {
	Registry *Registry
	Rooms    *Directory
	Router   *Router
}

func NewHub() *Hub {
	reg := NewRegistry()
	rooms := NewDirectory()
	return &Hub{
		Registry: reg,
		Rooms:    rooms,
		Router:   NewRouter(reg, rooms),
	}
}

// Connect registers c and queues connection_established as its first frame.
func (h *Hub) Connect(c Conn) string {
	id := h.Registry.Register(c)
	if err := c.Send(EncodeConnectionEstablished(id)); err != nil {
		slog.Warn("send connection_established failed", "client_id", id, "err", err)
	}
	slog.Info("client connected", "client_id", id)
	return id
}

// Disconnect removes c from its room and from the registry.
// Calling it again for the same connection does nothing.
func (h *Hub) Disconnect(c Conn) {
	meta, ok := h.Registry.Lookup(c)
	if !ok {
		return
	}
	if meta.Room != "" {
		h.Rooms.Leave(meta.Room, c)
	}
	if _, ok := h.Registry.Unregister(c); ok {
		slog.Info("client disconnected", "client_id", meta.ID, "room", meta.Room)
	}
}

// Health is the operational view served on /health.
type Health struct {
	Status      string     `json:"status"`
	Connections int        `json:"connections"`
	Rooms       []RoomStat `json:"rooms"`
}

func (h *Hub) Health() Health {
	return Health{
		Status:      "ok",
		Connections: h.Registry.Len(),
		Rooms:       h.Rooms.Snapshot(),
	}
}

type DebugMember struct {
	ID   string `json:"id"`
	Open bool   `json:"open"`
}

type DebugRoom struct {
	TotalClients int           `json:"totalClients"`
	Clients      []DebugMember `json:"clients"`
}

type DebugClient struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type DebugInfo struct {
	Rooms   map[string]DebugRoom `json:"rooms"`
	Clients []DebugClient        `json:"clients"`
}

const noRoom = "not in a room"

func (h *Hub) Debug() DebugInfo {
	info := DebugInfo{Rooms: make(map[string]DebugRoom), Clients: []DebugClient{}}

	for _, st := range h.Rooms.Snapshot() {
		members := h.Rooms.Members(st.Key)
		dr := DebugRoom{TotalClients: len(members), Clients: make([]DebugMember, 0, len(members))}
		for _, c := range members {
			id := "unknown"
			if meta, ok := h.Registry.Lookup(c); ok {
				id = meta.ID
			}
			dr.Clients = append(dr.Clients, DebugMember{ID: id, Open: c.Open()})
		}
		info.Rooms[st.Key] = dr
	}

	h.Registry.Each(func(_ Conn, meta ConnMeta) {
		room := meta.Room
		if room == "" {
			room = noRoom
		}
		info.Clients = append(info.Clients, DebugClient{ID: meta.ID, Email: room})
	})
	sort.Slice(info.Clients, func(i, j int) bool { return info.Clients[i].ID < info.Clients[j].ID })
	return info
}

// Notify broadcasts an update to every member of room.
func (h *Hub) Notify(room, action string) Delivery {
	return h.Router.Notify(room, action)
}
