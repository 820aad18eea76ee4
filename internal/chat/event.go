package chat

// EventKind is a notification the connection emits to its consumer.
type EventKind int

const (
	// EventStateChanged reports a connection state transition.
	EventStateChanged EventKind = iota
	// EventMessages delivers a snapshot of the visible message list.
	EventMessages
	// EventSmartReplies delivers reply suggestions for the latest message.
	EventSmartReplies
)

// Event is sent to the consumer to describe what happened on the connection.
// Messages is a copy; the consumer may keep it without racing the connection.
type Event struct {
	Kind     EventKind
	Channel  string
	State    ConnectionState
	Err      error // non-nil for StateError transitions
	Messages []Message
	Replies  []string
}
