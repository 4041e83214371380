package mailbox

import (
	"context"
	"errors"
	"sync"

	"github.com/gammazero/deque"
)

var (
	// ErrClosed is returned when sending to or receiving from a released mailbox
	// or when the transport has been shut down.
	ErrClosed = errors.New("mailbox closed")
	// ErrUnknownMailbox is returned when no mailbox is registered under an ID.
	ErrUnknownMailbox = errors.New("unknown mailbox")
)

// ID addresses a mailbox within a Transport.
type ID string

// Mailbox is an ordered, unbounded queue with a single owner.
// Any goroutine may Send; only the owner receives.
type Mailbox[T any] struct {
	id     ID
	mu     sync.Mutex
	queue  deque.Deque[T]
	notify chan struct{}
	closed bool
}

func newMailbox[T any](id ID) *Mailbox[T] {
	return &Mailbox[T]{
		id:     id,
		notify: make(chan struct{}, 1),
	}
}

// ID returns the mailbox address.
func (m *Mailbox[T]) ID() ID {
	return m.id
}

// Send enqueues msg. It never blocks.
func (m *Mailbox[T]) Send(msg T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.queue.PushBack(msg)
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// TryReceive dequeues the oldest message without waiting.
func (m *Mailbox[T]) TryReceive() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.queue.Len() == 0 {
		var zero T
		return zero, false
	}
	return m.queue.PopFront(), true
}

// Receive waits until a message is available, the mailbox is closed or ctx is done.
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		if msg, ok := m.TryReceive(); ok {
			return msg, nil
		}
		if m.isClosed() {
			var zero T
			return zero, ErrClosed
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Ready fires after at least one Send since the last wake-up.
// Spurious wake-ups are possible; callers drain with TryReceive.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.notify
}

// Len reports the number of queued messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

func (m *Mailbox[T]) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Mailbox[T]) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}
