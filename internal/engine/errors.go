package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrBarrierTimeout indicates a tick phase did not collect all of its
	// acknowledgements in time. Some message was lost or an actor stalled.
	ErrBarrierTimeout = errors.New("engine: barrier timed out")

	// ErrStopped indicates the engine's actors have been shut down.
	ErrStopped = errors.New("engine: stopped")

	// ErrNoBodies indicates an engine built without bodies.
	ErrNoBodies = errors.New("engine: no bodies")

	// ErrDuplicateBody indicates two bodies share an addressing key.
	ErrDuplicateBody = errors.New("engine: duplicate body name")

	// ErrUnknownBody indicates a message addressed to a name with no actor.
	ErrUnknownBody = errors.New("engine: unknown body")
)

// Phase names the part of a tick an error happened in.
type Phase string

const (
	PhaseForce     Phase = "force"
	PhaseIntegrate Phase = "integrate"
)

// TickError wraps a failure with the tick it interrupted.
type TickError struct {
	Tick    uint64
	Phase   Phase
	Got     int
	Want    int
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d, %s phase: %v (%d/%d acknowledged)", e.Tick, e.Phase, e.Wrapped, e.Got, e.Want)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
