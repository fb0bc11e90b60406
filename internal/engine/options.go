package engine

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	// DefaultDt is one simulated step, in seconds.
	DefaultDt = 60000.0

	// DefaultBarrierTimeout bounds how long a tick phase may wait for its
	// acknowledgements.
	DefaultBarrierTimeout = 5 * time.Second
)

type Option func(*Engine)

func WithDt(dt float64) Option {
	return func(e *Engine) { e.dt = dt }
}

func WithBarrierTimeout(d time.Duration) Option {
	return func(e *Engine) { e.barrierTimeout = d }
}

// WithInterval paces Run: consecutive ticks start at least d apart.
// Zero runs ticks back to back.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithRand shuffles the order in which force requests are dispatched.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithJitter delays every message delivery by f(). f is called from many
// goroutines at once.
func WithJitter(f func() time.Duration) Option {
	return func(e *Engine) { e.jitter = f }
}

// WithTrace calls f after each message has been applied to its actor.
// f is called from many goroutines at once.
func WithTrace(f func(Delivery)) Option {
	return func(e *Engine) { e.trace = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}
