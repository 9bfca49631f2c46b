package relay

import "errors"

var (
	// ErrProtocol marks an inbound frame that could not be understood.
	ErrProtocol = errors.New("protocol error")

	ErrSendQueueFull = errors.New("send queue full")
	ErrConnClosed    = errors.New("connection closed")
)
