package relayclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type fakeTransport struct {
	in chan []byte
	// err is returned by ReadMessage once in is closed
	errc chan error

	mu        sync.Mutex
	written   [][]byte
	closed    bool
	closeCode int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan []byte, 16), errc: make(chan error, 2)}
}

func (t *fakeTransport) ReadMessage() ([]byte, error) {
	select {
	case b := <-t.in:
		return b, nil
	case err := <-t.errc:
		return nil, err
	}
}

func (t *fakeTransport) WriteMessage(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.New("write on closed transport")
	}
	t.written = append(t.written, append([]byte(nil), data...))
	return nil
}

func (t *fakeTransport) Close(code int, _ string) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.closeCode = code
	t.mu.Unlock()
	select {
	case t.errc <- &websocket.CloseError{Code: code}:
	default:
	}
	return nil
}

// drop simulates the peer going away.
func (t *fakeTransport) drop(code int) {
	t.errc <- &websocket.CloseError{Code: code}
}

func (t *fakeTransport) push(v any) {
	b, _ := json.Marshal(v)
	t.in <- b
}

func (t *fakeTransport) sent() []outbound {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]outbound, 0, len(t.written))
	for _, b := range t.written {
		var o outbound
		_ = json.Unmarshal(b, &o)
		out = append(out, o)
	}
	return out
}

func (t *fakeTransport) code() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closeCode, t.closed
}

type fakeDialer struct {
	mu    sync.Mutex
	dials int
	errs  []error
	made  []*fakeTransport
	// gate, if set, blocks Dial until it is closed
	gate chan struct{}
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Transport, error) {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.errs) > 0 {
		err := d.errs[0]
		d.errs = d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	t := newFakeTransport()
	d.made = append(d.made, t)
	return t, nil
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) last() *fakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.made) == 0 {
		return nil
	}
	return d.made[len(d.made)-1]
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock records timers instead of running them.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) afterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{delay: d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) all() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTimer(nil), c.timers...)
}

func newTestManager(d *fakeDialer) (*Manager, *fakeClock) {
	m := New(Options{
		URL:    "ws://relay.test/ws",
		Dialer: d,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	clock := &fakeClock{}
	m.afterFunc = clock.afterFunc
	return m, clock
}
