// Package mailbox provides an unbounded FIFO queue with a coalesced wake-up
// signal, used to pass messages between single-threaded event loops without
// either side blocking on the other.
package mailbox

import "sync"

// Mailbox buffers messages and emits coalesced drain signals.
type Mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	signal chan struct{}
}

// New constructs an empty mailbox.
func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{
		signal: make(chan struct{}, 1),
	}
}

// Push appends a message and emits a non-blocking drain signal.
// Returns false if the mailbox has been closed; the message is discarded.
func (m *Mailbox[T]) Push(item T) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, item)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain returns all buffered messages in arrival order and clears the buffer.
func (m *Mailbox[T]) Drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return nil
	}

	out := make([]T, len(m.items))
	copy(out, m.items)
	clear(m.items)
	m.items = m.items[:0]
	return out
}

// Signal returns the channel that receives a value whenever messages are
// ready to drain. Several pushes may collapse into one signal.
func (m *Mailbox[T]) Signal() <-chan struct{} {
	return m.signal
}

// Len returns the number of buffered messages.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close rejects further pushes. Buffered messages can still be drained.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}
