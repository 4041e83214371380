package core

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
)

const waitTimeout = 2 * time.Second

func testOptions(capacity int) Options {
	return Options{
		Capacity: capacity,
		Worker: WorkerOptions{
			MaxLineLength:   500,
			SnapshotTimeout: waitTimeout,
			WriteTimeout:    waitTimeout,
		},
	}
}

// startCoordinator runs a coordinator until the test ends.
func startCoordinator(t *testing.T, capacity int) (*Coordinator, context.Context) {
	t.Helper()

	tr := mailbox.NewTransport[Envelope]("test")
	c, err := NewCoordinator(tr, testOptions(capacity), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("coordinator did not stop")
		}
	})
	return c, ctx
}

// mustEnvelope waits for an envelope of the given kind, skipping others.
func mustEnvelope(t *testing.T, box *mailbox.Mailbox[Envelope], kind EnvelopeKind) Envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	for {
		env, err := box.Receive(ctx)
		if err != nil {
			t.Fatalf("expected envelope kind %v not received: %v", kind, err)
		}
		if env.Kind == kind {
			return env
		}
	}
}

// testClient is the far end of a session, read line by line.
type testClient struct {
	t      *testing.T
	conn   net.Conn
	lines  chan string
	userID int
	done   <-chan struct{}
}

// connect admits a new in-memory connection and consumes the greeting.
func connect(t *testing.T, ctx context.Context, c *Coordinator) *testClient {
	t.Helper()

	server, client := newPipe(t)
	sess, err := c.Admit(ctx, server)
	require.NoError(t, err)

	tc := &testClient{
		t:      t,
		conn:   client,
		lines:  make(chan string, 256),
		userID: sess.UserID,
		done:   sess.Done,
	}
	go func() {
		defer close(tc.lines)
		sc := bufio.NewScanner(client)
		for sc.Scan() {
			tc.lines <- sc.Text()
		}
	}()

	tc.expect("Hello!")
	tc.expect(`\forward <name>`)
	return tc
}

// register connects a client and registers name.
func register(t *testing.T, ctx context.Context, c *Coordinator, name string) *testClient {
	t.Helper()

	tc := connect(t, ctx, c)
	tc.send(`\reg ` + name)
	tc.expect("[SYSTEM_MSG]: " + name + " has joined.")
	return tc
}

func (tc *testClient) send(line string) {
	tc.t.Helper()
	_ = tc.conn.SetWriteDeadline(time.Now().Add(waitTimeout))
	_, err := tc.conn.Write([]byte(line + "\n"))
	require.NoError(tc.t, err)
}

// expect reads until a line containing substr arrives.
func (tc *testClient) expect(substr string) string {
	tc.t.Helper()
	lines := tc.collectUntil(substr)
	return lines[len(lines)-1]
}

// collectUntil returns every line up to and including the first one containing substr.
func (tc *testClient) collectUntil(substr string) []string {
	tc.t.Helper()

	var seen []string
	timeout := time.After(waitTimeout)
	for {
		select {
		case line, ok := <-tc.lines:
			if !ok {
				tc.t.Fatalf("connection closed before %q; saw %q", substr, seen)
			}
			seen = append(seen, line)
			if strings.Contains(line, substr) {
				return seen
			}
		case <-timeout:
			tc.t.Fatalf("timed out waiting for %q; saw %q", substr, seen)
		}
	}
}

// flush returns everything the client receives until the worker has handled
// two round trips, which guarantees mail queued before the call was drained.
func (tc *testClient) flush() []string {
	tc.t.Helper()

	tc.send(`\ping`)
	tc.send(`\ping`)
	first := tc.collectUntil("pong")
	return append(first, tc.collectUntil("pong")...)
}

// expectClosed waits for the server to close the connection.
func (tc *testClient) expectClosed() {
	tc.t.Helper()

	timeout := time.After(waitTimeout)
	for {
		select {
		case _, ok := <-tc.lines:
			if !ok {
				return
			}
		case <-timeout:
			tc.t.Fatal("connection still open")
		}
	}
}

func countContaining(lines []string, substr string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

func newPipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return server, client
}
