package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run registers two users through the gateway and checks that a private
// message and a broadcast reach the other side.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket gateway address")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	suffix := time.Now().Format("150405")
	sender, receiver := "smoke-a"+suffix, "smoke-b"+suffix

	a, err := dial(ctx, *addr, sender)
	if err != nil {
		return err
	}
	defer a.Close(websocket.StatusNormalClosure, "bye")

	b, err := dial(ctx, *addr, receiver)
	if err != nil {
		return err
	}
	defer b.Close(websocket.StatusNormalClosure, "bye")

	if err := send(ctx, a, fmt.Sprintf("%spm %s %s", proto.Marker, receiver, *text)); err != nil {
		return err
	}
	if err := await(ctx, b, proto.Private(sender, *text)); err != nil {
		return err
	}
	if err := await(ctx, a, proto.DeliveryReport(receiver, *text)); err != nil {
		return err
	}

	if err := send(ctx, b, proto.Marker+"all "+*text); err != nil {
		return err
	}
	if err := await(ctx, a, proto.Broadcast(receiver, *text)); err != nil {
		return err
	}

	for _, c := range []*websocket.Conn{a, b} {
		if err := send(ctx, c, proto.Marker+"leave"); err != nil {
			return err
		}
	}
	fmt.Println("smoke test passed")
	return nil
}

func dial(ctx context.Context, addr, name string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if err := send(ctx, conn, proto.Marker+"reg "+name); err != nil {
		return nil, err
	}
	if err := await(ctx, conn, proto.Joined(name)); err != nil {
		return nil, err
	}
	return conn, nil
}

func send(ctx context.Context, conn *websocket.Conn, line string) error {
	if err := conn.Write(ctx, websocket.MessageText, []byte(line+"\n")); err != nil {
		return fmt.Errorf("send %q: %w", line, err)
	}
	return nil
}

// await reads until a message carrying want arrives.
func await(ctx context.Context, conn *websocket.Conn, want string) error {
	want = strings.TrimSuffix(want, "\n")
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("waiting for %q: %w", want, err)
		}
		fmt.Print(string(data))
		if strings.Contains(string(data), want) {
			return nil
		}
	}
}
