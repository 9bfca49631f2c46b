package relayclient

import (
	"errors"
	"log/slog"
	"time"
)

var (
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned by Connect when Disconnect was called while dialing.
	ErrClosed = errors.New("closed by user")
	ErrNoRoom = errors.New("room key is required")
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	TypeConnectionEstablished = "connection_established"
	TypeJoinRoom              = "join_room"
	TypeRoomJoined            = "room_joined"
	TypeAccountUpdate         = "account_update"
	TypeError                 = "error"
)

// Message is any frame received from the relay.
type Message struct {
	Type      string `json:"type"`
	ClientID  string `json:"clientId,omitempty"`
	Email     string `json:"email,omitempty"`
	Success   bool   `json:"success,omitempty"`
	Action    string `json:"action,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

// IsUpdate reports whether the message asks the application to refetch.
func (m Message) IsUpdate() bool { return m.Type == TypeAccountUpdate }

type outbound struct {
	Type   string `json:"type"`
	Email  string `json:"email,omitempty"`
	Action string `json:"action,omitempty"`
}

type Options struct {
	URL string
	// ReconnectDelay is the fixed wait before a reconnect. Default 3s.
	ReconnectDelay time.Duration
	// MessageBuffer is the capacity of Messages(). Default 256.
	MessageBuffer int
	// Dialer defaults to a gorilla/websocket dialer.
	Dialer Dialer
	// OnMessage, if set, is called from the receive loop for every decoded frame.
	OnMessage func(Message)
	Logger    *slog.Logger
}

const (
	DefaultReconnectDelay = 3 * time.Second
	defaultMessageBuffer  = 256
)
