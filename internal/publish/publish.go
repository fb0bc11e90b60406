// Package publish defines the Position Publisher the simulation core emits
// "body moved" events to, plus a few in-process implementations.
//
// Delivery is fire-and-forget. The core never waits on a publisher and
// treats a returned error as something to log, not something to act on.
package publish

import (
	"errors"
	"log/slog"
)

// Event reports a body's position after a tick.
type Event struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Tick uint64  `json:"tick"`
}

// Publisher receives one event per body per tick. Implementations must be
// safe for concurrent use: every body actor publishes from its own goroutine.
type Publisher interface {
	Publish(ev Event) error
}

// Func adapts a plain function to Publisher.
type Func func(Event) error

func (f Func) Publish(ev Event) error { return f(ev) }

// Discard drops every event.
var Discard Publisher = Func(func(Event) error { return nil })

type multi []Publisher

// Multi publishes each event to every p in order. All publishers are tried;
// their errors are joined.
func Multi(ps ...Publisher) Publisher {
	out := make(multi, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (m multi) Publish(ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type logger struct {
	log *slog.Logger
}

// NewLogger returns a publisher that writes every move at debug level.
func NewLogger(l *slog.Logger) Publisher {
	if l == nil {
		l = slog.Default()
	}
	return logger{log: l}
}

func (l logger) Publish(ev Event) error {
	l.log.Debug("body moved", "body", ev.Name, "tick", ev.Tick, "x", ev.X, "y", ev.Y)
	return nil
}
