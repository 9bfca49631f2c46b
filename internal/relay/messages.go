package relay

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Типы сообщений на проводе
const (
	TypeConnectionEstablished = "connection_established"
	TypeJoinRoom              = "join_room"
	TypeRoomJoined            = "room_joined"
	TypeAccountUpdate         = "account_update"
	TypeNotify                = "notify" // alias of account_update
	TypeError                 = "error"
)

const DefaultAction = "update"

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Inbound is a client to server frame. Email carries the room key.
type Inbound struct {
	Type   string `json:"type"`
	Email  string `json:"email,omitempty"`
	Action string `json:"action,omitempty"`
}

type ConnectionEstablished struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
}

type RoomJoined struct {
	Type    string `json:"type"`
	Email   string `json:"email"`
	Success bool   `json:"success"`
}

type AccountUpdate struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseInbound decodes and validates a client frame. Every failure wraps ErrProtocol.
func ParseInbound(raw []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: invalid message format", ErrProtocol)
	}

	switch msg.Type {
	case TypeJoinRoom:
		// the key is opaque and kept as sent; only blank keys are refused
		if strings.TrimSpace(msg.Email) == "" {
			return Inbound{}, fmt.Errorf("%w: join_room requires email", ErrProtocol)
		}
	case TypeAccountUpdate, TypeNotify:
		msg.Type = TypeAccountUpdate
	case "":
		return Inbound{}, fmt.Errorf("%w: missing type", ErrProtocol)
	default:
		return Inbound{}, fmt.Errorf("%w: unknown type %q", ErrProtocol, msg.Type)
	}

	return msg, nil
}

func encode(v any) []byte {
	// outbound types are plain structs of strings and bools, Marshal cannot fail
	b, _ := json.Marshal(v)
	return b
}

func EncodeConnectionEstablished(clientID string) []byte {
	return encode(ConnectionEstablished{Type: TypeConnectionEstablished, ClientID: clientID})
}

func EncodeRoomJoined(room string) []byte {
	return encode(RoomJoined{Type: TypeRoomJoined, Email: room, Success: true})
}

func EncodeAccountUpdate(action string, at time.Time) []byte {
	if strings.TrimSpace(action) == "" {
		action = DefaultAction
	}
	return encode(AccountUpdate{
		Type:      TypeAccountUpdate,
		Action:    action,
		Timestamp: at.UTC().Format(TimestampLayout),
	})
}

func EncodeError(message string) []byte {
	return encode(ErrorMessage{Type: TypeError, Message: message})
}
