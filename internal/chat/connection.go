package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/utils"
)

// ErrEmptyChannel is returned by Activate for an empty channel id.
var ErrEmptyChannel = errors.New("channel id is empty")

type commandKind int

const (
	cmdActivate commandKind = iota
	cmdSend
)

type command struct {
	kind    commandKind
	channel string
	text    string
	from    User
}

type dialResult struct {
	gen       int
	transport Transport
	err       error
}

// ChannelConnection owns at most one open transport for the active channel.
// It delivers history and live messages to the consumer, reconciles
// optimistic echoes against confirmed messages, and recovers from transport
// loss with capped exponential backoff.
//
// All state lives in the Run loop goroutine; Activate and Send only post
// commands, so no two transitions ever execute concurrently.
type ChannelConnection struct {
	dialer Dialer
	policy ReconnectPolicy
	log    *zerolog.Logger

	cmds   chan command
	dials  chan dialResult
	events chan Event

	// Loop-owned. Never touched outside Run.
	gen       int
	channelID string
	state     ConnectionState
	attempts  int
	transport Transport
	messages  []Message
	timer     *time.Timer
}

// NewChannelConnection constructs a connection manager. Run must be started
// before commands take effect.
func NewChannelConnection(dialer Dialer, policy ReconnectPolicy, logger *zerolog.Logger) *ChannelConnection {
	return &ChannelConnection{
		dialer: dialer,
		policy: policy,
		log:    logger,
		cmds:   make(chan command, 8),
		dials:  make(chan dialResult, 1),
		events: make(chan Event, 64),
		state:  StateDisconnected,
	}
}

// Events returns the consumer-facing event stream. It closes when Run
// returns. The consumer is expected to drain it.
func (c *ChannelConnection) Events() <-chan Event {
	return c.events
}

// Activate switches the connection to the given channel. Any transport or
// pending reconnect for the previous channel is torn down first, and the
// visible message list resets to empty. Does not block on the dial.
func (c *ChannelConnection) Activate(channelID string) error {
	if channelID == "" {
		return ErrEmptyChannel
	}
	c.cmds <- command{kind: cmdActivate, channel: channelID}
	return nil
}

// Send echoes text locally and transmits it. A silent no-op when the text is
// blank or the connection is not in the connected state.
func (c *ChannelConnection) Send(text string, from User) {
	c.cmds <- command{kind: cmdSend, text: text, from: from}
}

// Run drives the connection until ctx is cancelled.
func (c *ChannelConnection) Run(ctx context.Context) {
	defer c.teardown()

	for {
		var timerC <-chan time.Time
		if c.timer != nil {
			timerC = c.timer.C
		}
		var transportC <-chan TransportEvent
		if c.transport != nil {
			transportC = c.transport.Events()
		}

		select {
		case <-ctx.Done():
			return
		case cmd := <-c.cmds:
			c.handleCommand(ctx, cmd)
		case res := <-c.dials:
			c.handleDial(ctx, res)
		case ev, ok := <-transportC:
			c.handleTransport(ctx, ev, ok)
		case <-timerC:
			c.timer = nil
			c.log.Info().Str("channel", c.channelID).Int("attempt", c.attempts).Msg("reconnecting")
			c.dial(ctx)
		}
	}
}

func (c *ChannelConnection) handleCommand(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdActivate:
		c.gen++
		c.stopTimer()
		c.closeTransport()
		c.channelID = cmd.channel
		c.attempts = 0
		c.messages = nil
		c.emitMessages(ctx)
		c.dial(ctx)
	case cmdSend:
		c.handleSend(ctx, cmd.text, cmd.from)
	}
}

// dial kicks off an async transport open for the current channel. The result
// carries the generation so switches in flight discard stale opens.
func (c *ChannelConnection) dial(ctx context.Context) {
	c.setState(ctx, StateConnecting, nil)

	gen, channel := c.gen, c.channelID
	go func() {
		transport, err := c.dialer.Dial(ctx, channel)
		select {
		case c.dials <- dialResult{gen: gen, transport: transport, err: err}:
		case <-ctx.Done():
			if transport != nil {
				_ = transport.Close()
			}
		}
	}()
}

func (c *ChannelConnection) handleDial(ctx context.Context, res dialResult) {
	if res.gen != c.gen {
		if res.transport != nil {
			_ = res.transport.Close()
		}
		return
	}
	if res.err != nil {
		c.log.Warn().Err(res.err).Str("channel", c.channelID).Msg("dial failed")
		c.setState(ctx, StateError, res.err)
		c.scheduleReconnect(ctx)
		return
	}

	c.transport = res.transport
	c.attempts = 0
	c.setState(ctx, StateConnected, nil)
}

func (c *ChannelConnection) handleTransport(ctx context.Context, ev TransportEvent, ok bool) {
	if !ok {
		c.transport = nil
		c.scheduleReconnect(ctx)
		return
	}
	if ev.Err != nil {
		c.log.Warn().Err(ev.Err).Str("channel", c.channelID).Msg("transport error")
		c.setState(ctx, StateError, ev.Err)
		return
	}
	if ev.Frame != nil {
		c.handleFrame(ctx, *ev.Frame)
	}
}

func (c *ChannelConnection) handleFrame(ctx context.Context, frame proto.Frame) {
	switch frame.Type {
	case proto.FrameTypeHistory:
		var wire []proto.Message
		if err := json.Unmarshal(frame.Data, &wire); err != nil {
			c.log.Warn().Err(err).Msg("bad history frame")
			return
		}
		c.messages = historyFromWire(wire)
		c.emitMessages(ctx)
	case proto.FrameTypeMessage:
		var wire proto.Message
		if err := json.Unmarshal(frame.Data, &wire); err != nil {
			c.log.Warn().Err(err).Msg("bad message frame")
			return
		}
		confirmed := fromWire(wire)
		confirmed.Optimistic = false
		c.messages = reconcile(c.messages, confirmed)
		c.emitMessages(ctx)
	case proto.FrameTypeSmartReplies:
		var replies []string
		if err := json.Unmarshal(frame.Data, &replies); err != nil {
			c.log.Warn().Err(err).Msg("bad smart_replies frame")
			return
		}
		c.emit(ctx, Event{Kind: EventSmartReplies, Channel: c.channelID, State: c.state, Replies: replies})
	default:
		c.log.Debug().Str("type", frame.Type).Msg("ignoring unknown frame type")
	}
}

func (c *ChannelConnection) handleSend(ctx context.Context, text string, from User) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if c.state != StateConnected || c.transport == nil {
		c.log.Debug().Str("channel", c.channelID).Msg("send while not connected, dropped")
		return
	}

	echo := Message{
		ID:         utils.NewLocalID(),
		Author:     from.Name,
		AuthorID:   from.ID,
		Content:    text,
		SentAt:     time.Now(),
		Optimistic: true,
	}
	c.messages = append(c.messages, echo)
	c.emitMessages(ctx)

	if err := c.transport.Send(ctx, text); err != nil {
		// The read side surfaces the failure; the echo stays pending.
		c.log.Warn().Err(err).Str("channel", c.channelID).Msg("transmit failed")
	}
}

// scheduleReconnect moves to disconnected and arms the backoff timer, unless
// attempts are exhausted. Exhaustion is terminal until the next Activate.
func (c *ChannelConnection) scheduleReconnect(ctx context.Context) {
	c.setState(ctx, StateDisconnected, nil)

	if c.attempts >= c.policy.MaxAttempts {
		c.log.Warn().Str("channel", c.channelID).Int("attempts", c.attempts).Msg("reconnect attempts exhausted")
		return
	}

	delay := c.policy.Delay(c.attempts)
	c.attempts++
	c.timer = time.NewTimer(delay)
	c.log.Info().Str("channel", c.channelID).Dur("delay", delay).Int("attempt", c.attempts).Msg("reconnect scheduled")
}

func (c *ChannelConnection) setState(ctx context.Context, state ConnectionState, err error) {
	if c.state == state {
		return
	}
	c.state = state
	c.emit(ctx, Event{Kind: EventStateChanged, Channel: c.channelID, State: state, Err: err})
}

func (c *ChannelConnection) emitMessages(ctx context.Context) {
	snapshot := make([]Message, len(c.messages))
	copy(snapshot, c.messages)
	c.emit(ctx, Event{Kind: EventMessages, Channel: c.channelID, State: c.state, Messages: snapshot})
}

// emit delivers the event unless the run context ends first, so a consumer
// that stopped draining cannot wedge the loop past cancellation.
func (c *ChannelConnection) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *ChannelConnection) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *ChannelConnection) closeTransport() {
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
	}
}

func (c *ChannelConnection) teardown() {
	c.stopTimer()
	c.closeTransport()
	close(c.events)
}
