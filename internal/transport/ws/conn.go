package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucas-remigio/graocerto.pt/internal/relay"
)

// wsConn adapts a gorilla connection to relay.Conn. Frames are queued and
// written by writeLoop, so Send never waits on a slow peer.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	open      atomic.Bool
	closed    chan struct{}
	closeOnce sync.Once
	// releaseOnce guards registry/room cleanup
	releaseOnce sync.Once
}

func newWsConn(c *websocket.Conn, queue int) *wsConn {
	wc := &wsConn{
		conn:   c,
		send:   make(chan []byte, queue),
		closed: make(chan struct{}),
	}
	wc.open.Store(true)
	return wc
}

func (c *wsConn) Send(payload []byte) error {
	if !c.open.Load() {
		return relay.ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return relay.ErrSendQueueFull
	}
}

func (c *wsConn) Open() bool { return c.open.Load() }

func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.open.Store(false)
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

// closeWith sends a close frame with code before closing the socket.
func (c *wsConn) closeWith(code int, reason string, wait time.Duration) error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(wait))
	return c.Close()
}
