package body

import "fmt"

// Kind enumerates the messages a body actor understands.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindResetForce
	KindRequestState
	KindComputeForce
	KindComputePosition
)

var kindNames = [...]string{
	KindUnknown:         "unknown",
	KindResetForce:      "reset_force",
	KindRequestState:    "request_body_state",
	KindComputeForce:    "compute_force",
	KindComputePosition: "compute_position",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Message is addressed to a single actor. It is passed by value, so the
// Source snapshot it carries is independent of the sender's later updates.
type Message struct {
	Kind Kind
	Tick uint64

	// Target is the body asking for this actor's state (KindRequestState).
	Target string
	// Source is the disclosed snapshot (KindComputeForce).
	Source State
	// Dt is the integration step in seconds (KindComputePosition).
	Dt float64
}

func ResetForce(tick uint64) Message {
	return Message{Kind: KindResetForce, Tick: tick}
}

func RequestState(target string, tick uint64) Message {
	return Message{Kind: KindRequestState, Target: target, Tick: tick}
}

func ComputeForce(source State, tick uint64) Message {
	return Message{Kind: KindComputeForce, Source: source, Tick: tick}
}

func ComputePosition(dt float64, tick uint64) Message {
	return Message{Kind: KindComputePosition, Dt: dt, Tick: tick}
}
