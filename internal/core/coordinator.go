package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/mailbox"
)

// Options configures a Coordinator and the workers it spawns.
type Options struct {
	Capacity int
	Worker   WorkerOptions
}

// Session describes an admitted connection.
type Session struct {
	UserID int
	// Done is closed once the worker serving the connection has exited.
	Done <-chan struct{}
}

type admitResult struct {
	session Session
	err     error
}

type admission struct {
	conn  net.Conn
	reply chan admitResult
}

// Coordinator owns the directory. All directory mutations are applied on
// the goroutine running Run, one envelope at a time.
type Coordinator struct {
	transport  Transport
	inbox      *mailbox.Mailbox[Envelope]
	dir        *Directory
	opts       Options
	admissions chan admission
	done       chan struct{}
	workers    sync.WaitGroup
	log        *zerolog.Logger
}

// NewCoordinator creates a coordinator with its own mailbox on transport.
func NewCoordinator(transport Transport, opts Options, logger *zerolog.Logger) (*Coordinator, error) {
	inbox, err := transport.Open()
	if err != nil {
		return nil, fmt.Errorf("open coordinator mailbox: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Coordinator{
		transport:  transport,
		inbox:      inbox,
		dir:        NewDirectory(opts.Capacity),
		opts:       opts,
		admissions: make(chan admission),
		done:       make(chan struct{}),
		log:        logger,
	}, nil
}

// Mailbox returns the address workers send directory events to.
func (c *Coordinator) Mailbox() mailbox.ID {
	return c.inbox.ID()
}

// Run services admissions and directory events until ctx is cancelled or the
// transport fails. Workers are stopped through ctx and awaited before returning.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.transport.Release(c.inbox.ID())
	defer c.workers.Wait()
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Int("clients", c.dir.Len()).Msg("coordinator stopping")
			return nil
		case adm := <-c.admissions:
			if err := c.admit(ctx, adm); err != nil {
				return err
			}
		case <-c.inbox.Ready():
		}

		if err := c.drain(); err != nil {
			return err
		}
	}
}

// Admit hands conn to the coordinator. On success a worker owns conn; on
// ErrCapacity conn has already been closed.
func (c *Coordinator) Admit(ctx context.Context, conn net.Conn) (Session, error) {
	adm := admission{conn: conn, reply: make(chan admitResult, 1)}

	select {
	case c.admissions <- adm:
	case <-c.done:
		return Session{}, ErrStopped
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}

	res := <-adm.reply
	return res.session, res.err
}

// Snapshot fetches a directory snapshot through the sync protocol, for
// readers that are not workers.
func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	box, err := c.transport.Open()
	if err != nil {
		return Snapshot{}, fmt.Errorf("open snapshot mailbox: %w", err)
	}
	defer c.transport.Release(box.ID())

	req := Envelope{Kind: EnvelopeSnapshotRequest, ReplyTo: box.ID(), Seq: 1}
	if err := c.transport.Send(c.inbox.ID(), req); err != nil {
		return Snapshot{}, fmt.Errorf("request snapshot: %w", err)
	}

	for {
		env, err := box.Receive(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		if env.Kind == EnvelopeSnapshotReply && env.Snapshot != nil {
			return *env.Snapshot, nil
		}
	}
}

// admit applies the capacity limit and spawns a worker for the connection.
func (c *Coordinator) admit(ctx context.Context, adm admission) error {
	addr := remoteAddr(adm.conn)

	if c.dir.Full() {
		c.log.Warn().Str("addr", addr).Int("capacity", c.opts.Capacity).Msg("can't accept more clients")
		_ = adm.conn.Close()
		adm.reply <- admitResult{err: ErrCapacity}
		return nil
	}

	box, err := c.transport.Open()
	if err != nil {
		_ = adm.conn.Close()
		adm.reply <- admitResult{err: err}
		return fmt.Errorf("open worker mailbox: %w", err)
	}

	rec := c.dir.Admit(addr, box.ID())
	w := newWorker(rec, adm.conn, box, c.inbox.ID(), c.transport, c.opts.Worker, c.log)

	done := make(chan struct{})
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		defer close(done)
		if err := w.Run(ctx); err != nil {
			c.log.Error().Err(err).Int("user_id", rec.UserID).Msg("worker exited with error")
		}
	}()

	c.log.Info().Str("addr", addr).Int("user_id", rec.UserID).Msg("new connection")
	adm.reply <- admitResult{session: Session{UserID: rec.UserID, Done: done}}
	return nil
}

// drain handles queued directory events until the inbox is empty.
func (c *Coordinator) drain() error {
	for {
		env, ok := c.inbox.TryReceive()
		if !ok {
			return nil
		}
		if err := c.HandleDirectoryEvent(env); err != nil {
			return err
		}
	}
}

// HandleDirectoryEvent applies exactly one directory event. Only transport
// failures are returned; everything else is logged.
func (c *Coordinator) HandleDirectoryEvent(env Envelope) error {
	switch env.Kind {
	case EnvelopeSnapshotRequest:
		snap := c.dir.Snapshot()
		reply := Envelope{Kind: EnvelopeSnapshotReply, Seq: env.Seq, Snapshot: &snap}
		return c.send(env.ReplyTo, reply)

	case EnvelopeRegistered:
		rec, err := c.dir.Register(env.UserID, env.Name)
		if err != nil {
			return c.refuseName(env, UnregisteredName, err)
		}
		c.log.Info().Str("name", rec.Name).Int("user_id", rec.UserID).Msg("has registered")
		return nil

	case EnvelopeRenamed:
		old, err := c.dir.Rename(env.UserID, env.Name)
		if err != nil {
			return c.refuseName(env, env.OldName, err)
		}
		c.log.Info().Str("old_name", old).Str("name", env.Name).Int("user_id", env.UserID).Msg("changed name")
		return nil

	case EnvelopeQuit:
		if env.Record == nil {
			c.log.Warn().Msg("quit without record dropped")
			return nil
		}
		rec, ok := c.dir.Remove(env.Record.UserID)
		if !ok {
			c.log.Debug().Int("user_id", env.Record.UserID).Msg("quit for unknown user")
			return nil
		}
		c.log.Info().Str("name", rec.Name).Int("user_id", rec.UserID).Msg("left the server")
		return nil

	default:
		c.log.Warn().Stringer("kind", env.Kind).Msg("unexpected directory message dropped")
		return nil
	}
}

// refuseName tells the worker its registration or rename did not apply.
func (c *Coordinator) refuseName(env Envelope, revertTo string, cause error) error {
	c.log.Warn().Err(cause).Int("user_id", env.UserID).Str("name", env.Name).Msg("name change refused")

	rec, ok := c.dir.Get(env.UserID)
	if !ok {
		return nil
	}
	return c.send(rec.Mailbox, Envelope{
		Kind:    EnvelopeNameRejected,
		UserID:  env.UserID,
		Name:    env.Name,
		OldName: revertTo,
	})
}

// send delivers to a worker mailbox. A departed worker is not an error.
func (c *Coordinator) send(to mailbox.ID, env Envelope) error {
	err := c.transport.Send(to, env)
	if errors.Is(err, mailbox.ErrUnknownMailbox) {
		c.log.Debug().Str("mailbox", string(to)).Stringer("kind", env.Kind).Msg("recipient gone")
		return nil
	}
	if err != nil {
		return fmt.Errorf("send %s: %w", env.Kind, err)
	}
	return nil
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
