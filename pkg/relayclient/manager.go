package relayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// timer is the part of *time.Timer the manager uses.
type timer interface {
	Stop() bool
}

// Manager owns the client's single relay connection.
type Manager struct {
	opts      Options
	log       *slog.Logger
	dialer    Dialer
	afterFunc func(time.Duration, func()) timer

	mu         sync.Mutex
	state      State
	transport  Transport
	userClosed bool
	room       string
	clientID   string

	// single pending-retry slot; retryGen invalidates timers that were stopped too late
	retry     timer
	retryGen  uint64
	scheduled int

	writeMu  sync.Mutex
	messages chan Message
}

// New builds a Manager. It does not connect.
func New(opts Options) *Manager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.MessageBuffer <= 0 {
		opts.MessageBuffer = defaultMessageBuffer
	}
	if opts.Dialer == nil {
		opts.Dialer = WebSocketDialer{}
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		opts:   opts,
		log:    log.With("component", "relayclient"),
		dialer: opts.Dialer,
		afterFunc: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		messages: make(chan Message, opts.MessageBuffer),
	}
}

// Connect opens the transport unless one is already open or being opened.
// A failed dial schedules a reconnect and returns the dial error.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateDisconnected {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConnecting
	m.userClosed = false
	m.mu.Unlock()

	return m.dial(ctx)
}

// dial runs with the state already set to connecting. A Disconnect while it waits wins.
func (m *Manager) dial(ctx context.Context) error {
	m.log.Debug("connecting", "url", m.opts.URL)
	t, err := m.dialer.Dial(ctx, m.opts.URL)

	m.mu.Lock()
	if err != nil {
		m.state = StateDisconnected
		if !m.userClosed {
			m.scheduleRetryLocked()
		}
		m.mu.Unlock()
		m.log.Warn("connect failed", "url", m.opts.URL, "err", err)
		return fmt.Errorf("dial %s: %w", m.opts.URL, err)
	}
	if m.userClosed {
		m.state = StateDisconnected
		m.mu.Unlock()
		_ = t.Close(websocket.CloseNormalClosure, "User navigated away")
		return ErrClosed
	}
	m.transport = t
	m.state = StateConnected
	m.stopRetryLocked()
	room := m.room
	m.mu.Unlock()

	m.log.Info("connected", "url", m.opts.URL)
	go m.readLoop(t)

	if room != "" {
		if err := m.write(t, outbound{Type: TypeJoinRoom, Email: room}); err != nil {
			m.log.Warn("rejoin failed", "room", room, "err", err)
		}
	}
	return nil
}

// Disconnect closes the transport with 1000 and cancels any pending reconnect.
func (m *Manager) Disconnect() error {
	m.mu.Lock()
	m.userClosed = true
	m.stopRetryLocked()
	t := m.transport
	m.transport = nil
	if m.state == StateConnected {
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	if t == nil {
		return nil
	}
	m.log.Info("disconnecting")
	return t.Close(websocket.CloseNormalClosure, "User navigated away")
}

// Send serialises v and writes it. It fails with ErrNotConnected unless connected.
func (m *Manager) Send(v any) error {
	m.mu.Lock()
	t := m.transport
	connected := m.state == StateConnected
	m.mu.Unlock()

	if !connected || t == nil {
		return ErrNotConnected
	}
	return m.write(t, v)
}

// Join remembers room and sends join_room. The room is joined again after each reconnect,
// so a Join while disconnected still takes effect on the next connect.
func (m *Manager) Join(room string) error {
	if strings.TrimSpace(room) == "" {
		return ErrNoRoom
	}
	m.mu.Lock()
	m.room = room
	m.mu.Unlock()

	return m.Send(outbound{Type: TypeJoinRoom, Email: room})
}

// NotifyUpdate tells the other members of the joined room to refetch.
func (m *Manager) NotifyUpdate(action string) error {
	m.mu.Lock()
	room := m.room
	m.mu.Unlock()

	return m.Send(outbound{Type: TypeAccountUpdate, Email: room, Action: action})
}

// Messages is the stream of decoded frames. It is never closed.
func (m *Manager) Messages() <-chan Message { return m.messages }

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ClientID is the id from the last connection_established.
func (m *Manager) ClientID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clientID
}

func (m *Manager) PendingRetry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retry != nil
}

// ScheduledRetries counts every reconnect ever scheduled.
func (m *Manager) ScheduledRetries() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduled
}

func (m *Manager) write(t Transport, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return t.WriteMessage(b)
}

func (m *Manager) readLoop(t Transport) {
	for {
		data, err := t.ReadMessage()
		if err != nil {
			m.handleClose(t, err)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			m.log.Warn("failed to parse message", "err", err)
			continue
		}
		if msg.Type == TypeConnectionEstablished {
			m.mu.Lock()
			m.clientID = msg.ClientID
			m.mu.Unlock()
		}
		m.deliver(msg)
	}
}

func (m *Manager) deliver(msg Message) {
	select {
	case m.messages <- msg:
	default:
		m.log.Warn("message buffer full, dropping message", "type", msg.Type)
	}
	if m.opts.OnMessage != nil {
		m.opts.OnMessage(msg)
	}
}

func (m *Manager) handleClose(t Transport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// replaced or closed by Disconnect
	if m.transport != t {
		return
	}
	m.transport = nil
	m.state = StateDisconnected

	if m.userClosed || isCleanClose(err) {
		m.log.Info("disconnected", "err", err)
		return
	}
	m.log.Warn("connection lost, reconnect scheduled", "err", err, "delay", m.opts.ReconnectDelay)
	m.scheduleRetryLocked()
}

func (m *Manager) scheduleRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
	}
	m.retryGen++
	gen := m.retryGen
	m.scheduled++
	m.retry = m.afterFunc(m.opts.ReconnectDelay, func() { m.fireRetry(gen) })
}

func (m *Manager) stopRetryLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	m.retryGen++
}

func (m *Manager) fireRetry(gen uint64) {
	m.mu.Lock()
	if gen != m.retryGen || m.retry == nil || m.userClosed || m.state != StateDisconnected {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.state = StateConnecting
	m.mu.Unlock()

	if err := m.dial(context.Background()); err != nil {
		m.log.Debug("reconnect attempt failed", "err", err)
	}
}
