package chat

import (
	"time"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// User identifies the sender of locally echoed messages.
type User struct {
	ID    string
	Name  string
	Email string
}

// Channel is a read-only copy of a channel directory entry.
type Channel struct {
	ID      string
	Name    string
	Private bool
}

// Message is the domain model for a chat message. Optimistic marks a local
// echo that has not been confirmed by the server yet.
type Message struct {
	ID         string
	Author     string
	AuthorID   string
	Content    string
	SentAt     time.Time
	Optimistic bool
}

func fromWire(w proto.Message) Message {
	return Message{
		ID:         w.ID,
		Author:     w.Author,
		AuthorID:   w.AuthorID,
		Content:    w.Content,
		SentAt:     time.UnixMilli(w.SentAt),
		Optimistic: w.Optimistic,
	}
}

func historyFromWire(wire []proto.Message) []Message {
	messages := make([]Message, 0, len(wire))
	for _, w := range wire {
		messages = append(messages, fromWire(w))
	}
	return messages
}

// reconcile appends a server-confirmed message and removes the first
// optimistic entry with the same author id and content, so a local echo and
// its confirmation are never visible together. Order is append-only.
func reconcile(list []Message, confirmed Message) []Message {
	list = append(list, confirmed)
	for i, m := range list {
		if m.Optimistic && m.AuthorID == confirmed.AuthorID && m.Content == confirmed.Content {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
