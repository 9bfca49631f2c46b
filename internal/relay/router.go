package relay

import (
	"log/slog"
	"time"

	"github.com/lucas-remigio/graocerto.pt/internal/metrics"
)

// Router turns inbound frames into registry/directory operations.
type Router struct {
	registry *Registry
	rooms    *Directory
	now      func() time.Time
}

func NewRouter(registry *Registry, rooms *Directory) *Router {
	return &Router{registry: registry, rooms: rooms, now: time.Now}
}

// OnMessage handles one inbound frame from c. It never closes c.
func (r *Router) OnMessage(c Conn, raw []byte) {
	meta, ok := r.registry.Lookup(c)
	if !ok {
		slog.Error("message from unregistered connection dropped")
		return
	}

	msg, err := ParseInbound(raw)
	if err != nil {
		metrics.ProtocolErrors.Inc()
		slog.Warn("invalid inbound frame", "client_id", meta.ID, "err", err)
		r.reply(c, meta.ID, EncodeError(err.Error()))
		return
	}
	metrics.InboundMessages.WithLabelValues(msg.Type).Inc()

	switch msg.Type {
	case TypeJoinRoom:
		r.join(c, meta, msg.Email)
	case TypeAccountUpdate:
		r.update(c, meta, msg)
	}
}

func (r *Router) join(c Conn, meta ConnMeta, room string) {
	prev, ok := r.registry.SetRoom(c, room)
	if !ok {
		slog.Error("join for unregistered connection", "client_id", meta.ID)
		return
	}
	// одна комната на соединение
	if prev != "" && prev != room {
		r.rooms.Leave(prev, c)
	}
	r.rooms.Join(room, c)

	slog.Info("client joined room", "client_id", meta.ID, "room", room, "prev_room", prev)
	r.reply(c, meta.ID, EncodeRoomJoined(room))
}

func (r *Router) update(c Conn, meta ConnMeta, msg Inbound) {
	if meta.Room == "" {
		slog.Debug("update from connection without room", "client_id", meta.ID)
		return
	}
	if msg.Email != "" && msg.Email != meta.Room {
		slog.Debug("update names a different room, using joined room",
			"client_id", meta.ID, "room", meta.Room, "named", msg.Email)
	}

	res := r.rooms.Broadcast(meta.Room, EncodeAccountUpdate(msg.Action, r.now()), c)
	slog.Info("update broadcast",
		"from", meta.ID,
		"room", meta.Room,
		"delivered", res.Delivered,
		"skipped", res.Skipped,
		"failed", res.Failed)
}

// Notify broadcasts an update to every member of room. Used by triggers outside the socket.
func (r *Router) Notify(room, action string) Delivery {
	res := r.rooms.Broadcast(room, EncodeAccountUpdate(action, r.now()), nil)
	slog.Info("external update broadcast", "room", room, "delivered", res.Delivered, "failed", res.Failed)
	return res
}

func (r *Router) reply(c Conn, clientID string, payload []byte) {
	if err := c.Send(payload); err != nil {
		slog.Warn("reply failed", "client_id", clientID, "err", err)
	}
}
