package engine

import "sync"

// barrier counts acknowledgements for one tick at a time. Acks for any
// other tick never complete it.
type barrier struct {
	mu   sync.Mutex
	tick uint64
	want int
	got  int
	done chan struct{}
}

// arm resets the barrier for tick and returns a channel closed once want
// acknowledgements for that tick have been seen.
func (b *barrier) arm(tick uint64, want int) <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick = tick
	b.want = want
	b.got = 0
	b.done = make(chan struct{})
	if want <= 0 {
		close(b.done)
	}
	return b.done
}

// ack records one acknowledgement and reports whether it belonged to the
// armed tick. Late or surplus acks are rejected.
func (b *barrier) ack(tick uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done == nil || tick != b.tick || b.got >= b.want {
		return false
	}
	b.got++
	if b.got == b.want {
		close(b.done)
	}
	return true
}

func (b *barrier) count() (got, want int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.got, b.want
}
