package relay

// Conn is one live client channel as seen by the relay.
type Conn interface {
	// Send enqueues a frame without waiting for it to be flushed.
	Send(payload []byte) error
	// Open reports whether this connection can still accept frames.
	Open() bool
	Close() error
}
