package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// fastPolicy keeps reconnect tests in the millisecond range.
var fastPolicy = ReconnectPolicy{
	BaseDelay:   2 * time.Millisecond,
	MaxDelay:    8 * time.Millisecond,
	MaxAttempts: 5,
}

func startConn(t *testing.T, dialer Dialer, policy ReconnectPolicy) *ChannelConnection {
	t.Helper()

	logger := zerolog.Nop()
	conn := NewChannelConnection(dialer, policy, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go conn.Run(ctx)

	return conn
}

type fakeTransport struct {
	events    chan TransportEvent
	sent      chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		events: make(chan TransportEvent, 16),
		sent:   make(chan string, 16),
		closed: make(chan struct{}),
	}
}

func (f *fakeTransport) Events() <-chan TransportEvent { return f.events }

func (f *fakeTransport) Send(_ context.Context, text string) error {
	f.sent <- text
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() {
		close(f.closed)
		close(f.events)
	})
	return nil
}

// push delivers an inbound frame as if the server sent it.
func (f *fakeTransport) push(t *testing.T, frameType string, payload any) {
	t.Helper()

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", frameType, err)
	}
	f.events <- TransportEvent{Frame: &proto.Frame{Type: frameType, Data: data}}
}

// fail reports a transport error and then closes, like a dropped socket.
func (f *fakeTransport) fail(err error) {
	f.events <- TransportEvent{Err: err}
	_ = f.Close()
}

type fakeDialer struct {
	mu    sync.Mutex
	calls []string
	dial  func(channelID string) (Transport, error)
}

func (d *fakeDialer) Dial(_ context.Context, channelID string) (Transport, error) {
	d.mu.Lock()
	d.calls = append(d.calls, channelID)
	d.mu.Unlock()
	return d.dial(channelID)
}

func (d *fakeDialer) callLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// alwaysConnect returns a dialer handing out a fresh transport per dial and
// a channel carrying each transport as it is created.
func alwaysConnect() (*fakeDialer, chan *fakeTransport) {
	transports := make(chan *fakeTransport, 16)
	dialer := &fakeDialer{dial: func(string) (Transport, error) {
		ft := newFakeTransport()
		transports <- ft
		return ft, nil
	}}
	return dialer, transports
}

func mustEvent(t *testing.T, ch <-chan Event, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed while waiting for kind %v", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %v not received", kind)
		}
	}
}

// mustState waits for a state-change event reporting the given state.
func mustState(t *testing.T, ch <-chan Event, state ConnectionState) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event stream closed while waiting for state %v", state)
			}
			if ev.Kind == EventStateChanged && ev.State == state {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected state %v not reached", state)
		}
	}
}

// mustMessages waits for a message snapshot satisfying the predicate,
// skipping intermediate snapshots.
func mustMessages(t *testing.T, ch <-chan Event, ok func([]Message) bool) []Message {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, chOK := <-ch:
			if !chOK {
				t.Fatal("event stream closed while waiting for messages")
			}
			if ev.Kind == EventMessages && ok(ev.Messages) {
				return ev.Messages
			}
		case <-deadline:
			t.Fatal("expected message snapshot not received")
		}
	}
}

// assertQuiet fails if any event arrives within the window.
func assertQuiet(t *testing.T, ch <-chan Event, window time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("expected no events, got %+v", ev)
	case <-time.After(window):
	}
}

// connect activates the channel and returns its transport once the
// connection reports connected.
func connect(t *testing.T, conn *ChannelConnection, transports chan *fakeTransport, channelID string) *fakeTransport {
	t.Helper()

	if err := conn.Activate(channelID); err != nil {
		t.Fatalf("activate %s: %v", channelID, err)
	}
	mustState(t, conn.Events(), StateConnected)

	select {
	case ft := <-transports:
		return ft
	case <-time.After(2 * time.Second):
		t.Fatal("dialer never produced a transport")
		return nil
	}
}
