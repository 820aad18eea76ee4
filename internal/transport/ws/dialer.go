package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/chat"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// ErrUnauthorized is returned by Dial when the server rejects the session.
var ErrUnauthorized = errors.New("websocket dial unauthorized")

// Dialer opens one WebSocket per channel at {base}/ws/{channelId}.
type Dialer struct {
	base    string
	client  *stdhttp.Client
	timeout time.Duration
	log     *zerolog.Logger
}

// NewDialer builds a dialer from the server's http(s) base URL. The provided
// http client carries the session cookies into the upgrade request. timeout
// bounds each open attempt; zero means no bound beyond the caller's context.
func NewDialer(serverURL string, client *stdhttp.Client, timeout time.Duration, logger *zerolog.Logger) (*Dialer, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return &Dialer{
		base:    strings.TrimRight(u.String(), "/"),
		client:  client,
		timeout: timeout,
		log:     logger,
	}, nil
}

// Dial opens the transport for a channel and starts its read loop.
func (d *Dialer) Dial(ctx context.Context, channelID string) (chat.Transport, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	addr := d.base + "/ws/" + url.PathEscape(channelID)

	conn, resp, err := websocket.Dial(ctx, addr, &websocket.DialOptions{
		HTTPClient: d.client,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == stdhttp.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	t := &transport{
		conn:   conn,
		log:    d.log,
		events: make(chan chat.TransportEvent, 16),
		ctx:    readCtx,
		cancel: cancel,
	}
	go t.readLoop()

	d.log.Debug().Str("channel", channelID).Msg("websocket open")
	return t, nil
}

type transport struct {
	conn   *websocket.Conn
	log    *zerolog.Logger
	events chan chat.TransportEvent
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *transport) Events() <-chan chat.TransportEvent {
	return t.events
}

// Send transmits the raw message text. Outbound frames are not JSON-wrapped.
func (t *transport) Send(ctx context.Context, text string) error {
	if err := t.conn.Write(ctx, websocket.MessageText, []byte(text)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (t *transport) Close() error {
	t.cancel()
	return t.conn.Close(websocket.StatusNormalClosure, "channel closed")
}

// readLoop decodes inbound frames until the connection is done. Malformed
// JSON is logged and discarded without tearing the connection down.
func (t *transport) readLoop() {
	defer close(t.events)

	for {
		typ, data, err := t.conn.Read(t.ctx)
		if err != nil {
			if terminal := t.classify(err); terminal != nil {
				t.emit(chat.TransportEvent{Err: terminal})
			}
			return
		}
		if typ != websocket.MessageText {
			t.log.Debug().Msg("ignoring non-text frame")
			continue
		}

		var frame proto.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			t.log.Warn().Err(err).Msg("discarding malformed frame")
			continue
		}
		t.emit(chat.TransportEvent{Frame: &frame})
	}
}

// classify maps a read error to the terminal error reported upstream.
// nil means a clean shutdown that should close the stream silently.
func (t *transport) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	return err
}

func (t *transport) emit(ev chat.TransportEvent) {
	select {
	case t.events <- ev:
	case <-t.ctx.Done():
	}
}
