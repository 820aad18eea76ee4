package proto

import "encoding/json"

// Frame is the envelope for messages coming from the server. Outbound
// traffic is the raw message text and carries no envelope.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	// FrameTypeHistory carries the full ordered message history for a
	// channel. Sent once per connection, immediately after open.
	FrameTypeHistory = "history"
	// FrameTypeMessage carries a single newly confirmed message.
	FrameTypeMessage = "message"
	// FrameTypeSmartReplies carries reply suggestions for the latest message.
	FrameTypeSmartReplies = "smart_replies"
)

// Message is a chat message on the wire. Timestamps are unix milliseconds.
type Message struct {
	ID         string `json:"id"`
	Author     string `json:"author"`
	AuthorID   string `json:"author_id"`
	Content    string `json:"content"`
	SentAt     int64  `json:"sent_at"`
	Optimistic bool   `json:"optimistic,omitempty"`
}
