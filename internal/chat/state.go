package chat

// ConnectionState represents the current state of the channel connection.
type ConnectionState int

const (
	// StateDisconnected means no transport is open.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a transport open attempt is in flight.
	StateConnecting

	// StateConnected means the transport is open and ready.
	StateConnected

	// StateError means the transport failed; a close follows.
	StateError
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
