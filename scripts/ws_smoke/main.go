package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/wirechat-client/internal/proto"
)

// Smoke test for the channel socket: dial /ws/{channel}, optionally send one
// message as raw text, and dump inbound frames until the first live message
// or the timeout.
func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080", "server base address")
	channel := flag.String("channel", "general", "channel id")
	text := flag.String("text", "hello from smoke test", "message text to send (empty to skip)")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr+"/ws/"+*channel, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if *text != "" {
		if err := conn.Write(ctx, websocket.MessageText, []byte(*text)); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		var frame proto.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			fmt.Printf("Unparseable frame: %s\n", string(data))
			continue
		}
		fmt.Printf("Received frame: type=%s\n", frame.Type)

		switch frame.Type {
		case proto.FrameTypeHistory:
			var history []proto.Message
			if err := json.Unmarshal(frame.Data, &history); err != nil {
				return fmt.Errorf("unmarshal history: %w", err)
			}
			fmt.Printf("History: %d messages\n", len(history))
		case proto.FrameTypeMessage:
			var msg proto.Message
			if err := json.Unmarshal(frame.Data, &msg); err != nil {
				fmt.Printf("Raw data: %s\n", string(frame.Data))
				return fmt.Errorf("unmarshal message: %w", err)
			}
			fmt.Printf("Message: id=%s author=%s text=%q sent_at=%d\n", msg.ID, msg.Author, msg.Content, msg.SentAt)
			return nil
		case proto.FrameTypeSmartReplies:
			var replies []string
			if err := json.Unmarshal(frame.Data, &replies); err == nil {
				fmt.Printf("Suggestions: %v\n", replies)
			}
		default:
			// keep looping for a message
		}
	}
}
