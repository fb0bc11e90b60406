// Package sim is a single-goroutine reference implementation of the tick
// the actor engine performs. It applies the same body.Handle transitions in
// a fixed order, which makes it a deterministic baseline for tests and
// benchmarks.
package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/orrery/internal/body"
)

type Simulator struct {
	states []body.State
	dt     float64
	tick   uint64
}

func New(states []body.State, dt float64) (*Simulator, error) {
	if err := validate(states, dt); err != nil {
		return nil, err
	}
	cp := make([]body.State, len(states))
	for i, s := range states {
		s, _ = body.Handle(s, body.ResetForce(0))
		cp[i] = s
	}
	return &Simulator{states: cp, dt: dt}, nil
}

func validate(states []body.State, dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", dt)
	}
	if len(states) == 0 {
		return fmt.Errorf("no bodies")
	}
	seen := make(map[string]bool, len(states))
	for _, s := range states {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate body %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Step advances every body by one tick and returns the position updates.
func (s *Simulator) Step() []body.Moved {
	s.tick++
	var moves []body.Moved
	s.states, moves = Step(s.states, s.dt, s.tick)
	return moves
}

// Run steps ticks times, calling callback after each tick. A false return
// from callback stops the run early.
func (s *Simulator) Run(ctx context.Context, ticks int, callback func(tick uint64, states []body.State) bool) error {
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.Step()

		if callback != nil && !callback(s.tick, s.States()) {
			return nil
		}
	}
	return nil
}

func (s *Simulator) States() []body.State {
	return append([]body.State(nil), s.states...)
}

func (s *Simulator) Tick() uint64 { return s.tick }

// Step computes one tick over states without modifying them: every body
// accumulates the pull of every other body as it was at the start of the
// tick, then all bodies integrate.
func Step(states []body.State, dt float64, tick uint64) ([]body.State, []body.Moved) {
	next := make([]body.State, len(states))
	for i, s := range states {
		s, _ = body.Handle(s, body.ResetForce(tick))
		for j, other := range states {
			if i == j {
				continue
			}
			s, _ = body.Handle(s, body.ComputeForce(other, tick))
		}
		next[i] = s
	}

	moves := make([]body.Moved, len(next))
	for i, s := range next {
		var eff body.Effect
		next[i], eff = body.Handle(s, body.ComputePosition(dt, tick))
		moves[i] = *eff.Moved
	}
	return next, moves
}
