package mailbox

import (
	"fmt"
	"sync"

	"github.com/vovakirdan/chatrelay/internal/utils"
)

// Transport creates and addresses mailboxes. Addresses are namespaced so that
// several transports never hand out colliding IDs.
type Transport[T any] struct {
	namespace string

	mu     sync.RWMutex
	boxes  map[ID]*Mailbox[T]
	closed bool
}

// NewTransport constructs an in-memory transport for the given namespace.
func NewTransport[T any](namespace string) *Transport[T] {
	return &Transport[T]{
		namespace: namespace,
		boxes:     make(map[ID]*Mailbox[T]),
	}
}

// Open creates a new mailbox with a fresh address.
func (t *Transport[T]) Open() (*Mailbox[T], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, fmt.Errorf("open mailbox in %s: %w", t.namespace, ErrClosed)
	}
	box := newMailbox[T](ID(t.namespace + "/" + utils.NewID()))
	t.boxes[box.id] = box
	return box, nil
}

// Send delivers msg to the mailbox addressed by to. ErrClosed means the
// transport itself is down; ErrUnknownMailbox means the recipient is gone.
func (t *Transport[T]) Send(to ID, msg T) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return ErrClosed
	}
	box, ok := t.boxes[to]
	t.mu.RUnlock()

	if !ok {
		return fmt.Errorf("send to %s: %w", to, ErrUnknownMailbox)
	}
	// A mailbox released after the lookup is gone just the same.
	if err := box.Send(msg); err != nil {
		return fmt.Errorf("send to %s: %w", to, ErrUnknownMailbox)
	}
	return nil
}

// Release closes and forgets a mailbox. Releasing an unknown ID is a no-op.
func (t *Transport[T]) Release(id ID) {
	t.mu.Lock()
	box, ok := t.boxes[id]
	delete(t.boxes, id)
	t.mu.Unlock()

	if ok {
		box.close()
	}
}

// Len returns the number of open mailboxes.
func (t *Transport[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.boxes)
}

// Shutdown closes every mailbox; further Open and Send calls fail with ErrClosed.
func (t *Transport[T]) Shutdown() {
	t.mu.Lock()
	boxes := t.boxes
	t.boxes = make(map[ID]*Mailbox[T])
	t.closed = true
	t.mu.Unlock()

	for _, box := range boxes {
		box.close()
	}
}
