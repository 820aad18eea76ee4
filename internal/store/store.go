package store

import (
	"context"

	"github.com/vovakirdan/wirechat-client/internal/chat"
)

// Store is the local cache behind the client: the last known channel list
// and the confirmed message history per channel. Optimistic echoes are never
// persisted.
type Store interface {
	// ReplaceChannels overwrites the cached channel directory.
	ReplaceChannels(ctx context.Context, channels []chat.Channel) error

	// Channels returns the cached channel directory, name-ordered.
	Channels(ctx context.Context) ([]chat.Channel, error)

	// ReplaceHistory overwrites the cached history for one channel with the
	// given confirmed messages, preserving their order.
	ReplaceHistory(ctx context.Context, channelID string, messages []chat.Message) error

	// History returns the cached messages for a channel in insertion order.
	History(ctx context.Context, channelID string) ([]chat.Message, error)

	Close() error
}
