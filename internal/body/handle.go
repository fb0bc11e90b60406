package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Moved is the position update a body emits after integrating a tick.
type Moved struct {
	Name     string
	Tick     uint64
	Position mgl64.Vec2
	Velocity mgl64.Vec2

	// Force and NetForce are the accumulators that were integrated,
	// captured before they were cleared.
	Force    mgl64.Vec2
	NetForce float64
}

// Effect is the work Handle asks the runtime to perform. The zero value
// means nothing to do.
type Effect struct {
	// Reply, when non-nil, must be delivered to the body named To.
	Reply *Envelope
	// Moved, when non-nil, must be published.
	Moved *Moved
}

// Envelope is a message together with its destination.
type Envelope struct {
	To      string
	Message Message
}

// Handle applies m to s and returns the successor state. s is never
// modified. Unrecognized kinds return s unchanged with an empty Effect.
func Handle(s State, m Message) (State, Effect) {
	switch m.Kind {
	case KindResetForce:
		return resetForce(s), Effect{}

	case KindRequestState:
		return s, Effect{Reply: &Envelope{
			To:      m.Target,
			Message: ComputeForce(s, m.Tick),
		}}

	case KindComputeForce:
		f, mag := GravityFrom(s, m.Source)
		s.Force = s.Force.Add(f)
		s.NetForce += mag
		return s, Effect{}

	case KindComputePosition:
		moved := Moved{
			Name:     s.Name,
			Tick:     m.Tick,
			Force:    s.Force,
			NetForce: s.NetForce,
		}
		s = resetForce(Integrate(s, m.Dt))
		moved.Position = s.Position
		moved.Velocity = s.Velocity
		return s, Effect{Moved: &moved}
	}
	return s, Effect{}
}

// GravityFrom returns the force other exerts on s and its magnitude.
// The squared separation is floored at Epsilon; the direction is divided
// by the floored distance, so coincident bodies yield a zero vector with a
// bounded magnitude.
func GravityFrom(s, other State) (mgl64.Vec2, float64) {
	delta := other.Position.Sub(s.Position)
	r2 := math.Max(delta.Dot(delta), Epsilon)
	mag := G * s.Mass * other.Mass / r2
	return delta.Mul(mag / math.Sqrt(r2)), mag
}

// Integrate advances s by dt with semi-implicit Euler: the updated
// velocity moves the position. Accumulators are left as they were.
func Integrate(s State, dt float64) State {
	s.Acceleration = mgl64.Vec2{s.Force[0] / s.Mass, s.Force[1] / s.Mass}
	s.Velocity = s.Velocity.Add(s.Acceleration.Mul(dt))
	s.Position = s.Position.Add(s.Velocity.Mul(dt))
	return s
}

func resetForce(s State) State {
	s.Force = mgl64.Vec2{}
	s.NetForce = 0
	return s
}
