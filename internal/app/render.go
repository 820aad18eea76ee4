package app

import (
	"fmt"
	"io"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

// renderer writes the chat pane. It tracks how much of the current channel's
// list has been printed so snapshots only produce the unseen tail.
type renderer struct {
	w     io.Writer
	shown int
}

// preview prints cached history shown before the socket delivers the real
// one, and counts it as printed so the live history only appends.
func (r *renderer) preview(messages []chat.Message) {
	for _, m := range messages {
		r.printMessage(m)
	}
	r.shown = len(messages)
}

// snapshot prints the entries not printed yet. Reconciliation swaps an echo
// for its confirmation without growing the list, so nothing is reprinted. A
// shorter list, such as the empty one emitted on channel switch, rewinds the
// cursor.
func (r *renderer) snapshot(messages []chat.Message) {
	if len(messages) < r.shown {
		r.shown = len(messages)
	}
	for ; r.shown < len(messages); r.shown++ {
		r.printMessage(messages[r.shown])
	}
}

func (r *renderer) printMessage(m chat.Message) {
	fmt.Fprintf(r.w, "[%s] %s: %s\n", m.SentAt.Format("15:04"), m.Author, m.Content)
}
