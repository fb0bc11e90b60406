package engine

import (
	"time"

	"github.com/san-kum/orrery/internal/body"
)

// TickReport summarizes one completed tick. Slices are indexed in the
// order the bodies were given to New.
type TickReport struct {
	Tick    uint64
	Dt      float64
	SimTime float64

	// States are the bodies after integration.
	States []body.State
	// Moves carry the forces each body integrated this tick.
	Moves []body.Moved

	ForceAcks int
	Elapsed   time.Duration
}

// Delivery describes a message that has just been applied to an actor.
type Delivery struct {
	Tick uint64
	Kind body.Kind
	To   string
}

// Observer is notified after every completed tick, from the goroutine
// that called Step.
type Observer interface {
	OnTick(r *TickReport)
}

type ObserverFunc func(r *TickReport)

func (f ObserverFunc) OnTick(r *TickReport) { f(r) }
