package chat

import (
	"context"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// TransportEvent is one occurrence on an open transport. Frame is set for an
// inbound frame; Err is set once, for an abnormal failure, after which the
// events channel closes.
type TransportEvent struct {
	Frame *proto.Frame
	Err   error
}

// Transport is an open per-channel connection. It is exclusively owned by
// one ChannelConnection at a time.
type Transport interface {
	// Events returns the inbound event stream. The channel closes when the
	// transport is done, normally or not.
	Events() <-chan TransportEvent

	// Send transmits the raw message text.
	Send(ctx context.Context, text string) error

	// Close tears the transport down. Best effort; safe to call twice.
	Close() error
}

// Dialer opens a transport addressed to a channel.
type Dialer interface {
	Dial(ctx context.Context, channelID string) (Transport, error)
}
