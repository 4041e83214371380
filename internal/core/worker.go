package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

// WorkerOptions configures per-connection workers.
type WorkerOptions struct {
	MaxLineLength   int
	SnapshotTimeout time.Duration
	WriteTimeout    time.Duration
}

// ConversationContext remembers the last private exchange of one client.
type ConversationContext struct {
	LastMessage string
	LastContact string
}

// Worker owns one connection, its mailbox and its conversation context.
type Worker struct {
	self        ClientRecord
	conn        net.Conn
	inbox       *mailbox.Mailbox[Envelope]
	coordinator mailbox.ID
	transport   Transport
	opts        WorkerOptions
	delivery    *Delivery
	convo       ConversationContext
	log         zerolog.Logger

	// mail received while waiting for a snapshot reply
	deferred []Envelope
	seq      uint64
	snapshot Snapshot
	closed   bool
}

func newWorker(
	rec ClientRecord,
	conn net.Conn,
	inbox *mailbox.Mailbox[Envelope],
	coordinator mailbox.ID,
	transport Transport,
	opts WorkerOptions,
	logger *zerolog.Logger,
) *Worker {
	w := &Worker{
		self:        rec,
		conn:        conn,
		inbox:       inbox,
		coordinator: coordinator,
		transport:   transport,
		opts:        opts,
		log:         logger.With().Int("user_id", rec.UserID).Logger(),
	}
	w.delivery = NewDelivery(transport, w, &w.log)
	return w
}

// Run serves the connection until the client leaves, disconnects or ctx is done.
func (w *Worker) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer w.transport.Release(w.inbox.ID())

	lines := make(chan proto.Line)
	go w.readLoop(ctx, lines)

	w.write(proto.Greeting)
	w.write(proto.HelpText)

	for {
		select {
		case <-ctx.Done():
			return w.depart(ctx)
		case line, ok := <-lines:
			if !ok {
				return w.depart(ctx)
			}
			leave, err := w.handleLine(ctx, line)
			if err != nil {
				if departErr := w.depart(ctx); departErr != nil {
					w.log.Warn().Err(departErr).Msg("departure after failure")
				}
				return err
			}
			if leave {
				return w.depart(ctx)
			}
		case <-w.inbox.Ready():
		}

		w.drain()
	}
}

// readLoop feeds client lines to Run and closes lines on EOF or read error.
func (w *Worker) readLoop(ctx context.Context, lines chan<- proto.Line) {
	defer close(lines)

	reader := proto.NewLineReader(w.conn, w.opts.MaxLineLength)
	for {
		line, err := reader.Next()
		if err != nil {
			w.log.Debug().Err(err).Msg("connection read ended")
			return
		}
		select {
		case lines <- line:
		case <-ctx.Done():
			return
		}
	}
}

// handleLine validates one raw line and dispatches it.
func (w *Worker) handleLine(ctx context.Context, line proto.Line) (bool, error) {
	if line.TooLong {
		w.writeError(errTooLong)
		return false, nil
	}
	if line.Text == "" {
		return false, nil
	}
	word, args, ok := proto.Tokenize(line.Text)
	if !ok {
		w.writeError(errInvalidCommand)
		return false, nil
	}

	leave, err := w.Dispatch(ctx, ParseCommand(word, args))
	if errors.Is(err, ErrSnapshotTimeout) {
		w.log.Error().Err(err).Msg("directory did not answer")
		w.writeError(errUnavailable)
		return false, nil
	}
	return leave, err
}

// drain delivers every queued envelope without waiting.
func (w *Worker) drain() {
	pending := w.deferred
	w.deferred = nil
	for _, env := range pending {
		w.receive(env)
	}
	for {
		env, ok := w.inbox.TryReceive()
		if !ok {
			return
		}
		w.receive(env)
	}
}

// receive handles one envelope addressed to this worker.
func (w *Worker) receive(env Envelope) {
	switch env.Kind {
	case EnvelopePrivateMessage:
		w.write(proto.Private(env.From.Name, env.Text))
		w.convo.LastMessage = env.Text
		w.convo.LastContact = env.From.Name
	case EnvelopeBroadcastMessage:
		w.write(env.Text)
	case EnvelopeNameRejected:
		// A refused registration leaves the record unregistered no matter
		// what the worker renamed itself to since; renames of an
		// unregistered record are refused too.
		if env.OldName == UnregisteredName {
			if !w.self.Registered {
				return
			}
			w.self.Name = UnregisteredName
			w.self.Registered = false
			w.writeError(errNameExists)
			return
		}
		if w.self.Name != env.Name {
			return
		}
		w.self.Name = env.OldName
		w.writeError(errNameExists)
	case EnvelopeSnapshotReply:
		w.log.Debug().Uint64("seq", env.Seq).Msg("stale snapshot reply dropped")
	default:
		w.log.Warn().Stringer("kind", env.Kind).Msg("unexpected mail dropped")
	}
}

// Refresh fetches a new directory snapshot. Mail that arrives in the
// meantime is kept for the next drain.
func (w *Worker) Refresh(ctx context.Context) (Snapshot, error) {
	w.seq++
	seq := w.seq

	req := Envelope{Kind: EnvelopeSnapshotRequest, ReplyTo: w.inbox.ID(), Seq: seq}
	if err := w.transport.Send(w.coordinator, req); err != nil {
		return Snapshot{}, fmt.Errorf("request snapshot: %w", err)
	}

	if w.opts.SnapshotTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.opts.SnapshotTimeout)
		defer cancel()
	}

	for {
		env, err := w.inbox.Receive(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			return Snapshot{}, ErrSnapshotTimeout
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("await snapshot: %w", err)
		}
		if env.Kind != EnvelopeSnapshotReply {
			w.deferred = append(w.deferred, env)
			continue
		}
		if env.Seq != seq || env.Snapshot == nil {
			continue
		}
		w.snapshot = *env.Snapshot
		return w.snapshot, nil
	}
}

// depart closes the connection, tells the coordinator and notifies everyone else.
func (w *Worker) depart(ctx context.Context) error {
	w.closeConn()

	rec := w.self
	if err := w.transport.Send(w.coordinator, Envelope{Kind: EnvelopeQuit, Record: &rec}); err != nil {
		return fmt.Errorf("send quit: %w", err)
	}
	w.log.Info().Str("name", w.self.Name).Msg("client departed")

	if ctx.Err() != nil {
		return nil
	}
	if _, err := w.delivery.Broadcast(ctx, w.self, proto.Left(w.self.Name), false); err != nil {
		return fmt.Errorf("departure notice: %w", err)
	}
	return nil
}

func (w *Worker) closeConn() {
	if w.closed {
		return
	}
	w.closed = true
	if err := w.conn.Close(); err != nil {
		w.log.Debug().Err(err).Msg("close connection")
	}
}

func (w *Worker) write(s string) {
	if w.closed {
		return
	}
	if w.opts.WriteTimeout > 0 {
		if err := w.conn.SetWriteDeadline(time.Now().Add(w.opts.WriteTimeout)); err != nil {
			w.log.Debug().Err(err).Msg("set write deadline")
		}
	}
	if _, err := w.conn.Write([]byte(s)); err != nil {
		w.log.Debug().Err(err).Msg("write to client")
	}
}

func (w *Worker) writeError(e *CoreError) {
	w.write(proto.Error(e.Message))
}
