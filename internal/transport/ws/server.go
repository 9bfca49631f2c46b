package ws

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucas-remigio/graocerto.pt/internal/relay"
)

type Options struct {
	PingInterval   time.Duration
	WriteWait      time.Duration
	SendQueue      int
	MaxMessageSize int64
	// AllowedOrigins empty means any origin.
	AllowedOrigins []string
}

func DefaultOptions() Options {
	return Options{
		PingInterval:   15 * time.Second,
		WriteWait:      5 * time.Second,
		SendQueue:      64,
		MaxMessageSize: 1 << 16,
	}
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *relay.Hub
	opts     Options
}

func NewServer(hub *relay.Hub, opts Options) *Server {
	def := DefaultOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.SendQueue <= 0 {
		opts.SendQueue = def.SendQueue
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = def.MaxMessageSize
	}

	return &Server{
		hub:  hub,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// HandleWS upgrades the request and serves the connection until it closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already replied with an HTTP error
		slog.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newWsConn(conn, s.opts.SendQueue)
	id := s.hub.Connect(c)

	go s.writeLoop(c, id)
	s.readLoop(c, id)

	s.release(c)
}

// release runs the disconnect cleanup exactly once per connection.
func (s *Server) release(c *wsConn) {
	c.releaseOnce.Do(func() {
		s.hub.Disconnect(c)
		if err := c.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Debug("ws close failed", "err", err)
		}
	})
}

func (s *Server) readLoop(c *wsConn, id string) {
	c.conn.SetReadLimit(s.opts.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingInterval))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Info("ws closed uncleanly", "client_id", id, "err", err)
			}
			return
		}
		s.hub.Router.OnMessage(c, data)
	}
}

func (s *Server) writeLoop(c *wsConn, id string) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				slog.Debug("ws write failed", "client_id", id, "err", err)
				// unblocks readLoop, which performs the cleanup
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// Shutdown closes every live connection with 1001 going away.
func (s *Server) Shutdown() {
	s.hub.Registry.Each(func(c relay.Conn, _ relay.ConnMeta) {
		if wc, ok := c.(*wsConn); ok {
			_ = wc.closeWith(websocket.CloseGoingAway, "server shutting down", time.Second)
			return
		}
		_ = c.Close()
	})
}
