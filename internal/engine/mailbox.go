package engine

import (
	"sync"

	"github.com/san-kum/orrery/internal/body"
)

// mailbox is an unbounded FIFO queue. push never blocks, so an actor can
// always reply to another actor without risking a send cycle.
type mailbox struct {
	mu    sync.Mutex
	queue []body.Message
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) push(msg body.Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// drain hands back everything queued so far and keeps spare as the next
// backing buffer.
func (m *mailbox) drain(spare []body.Message) []body.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.queue
	m.queue = spare[:0]
	return q
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
