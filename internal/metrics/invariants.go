package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/orrery/internal/body"
)

// KineticEnergy is the sum of ½mv² over all bodies.
func KineticEnergy(states []body.State) float64 {
	ke := 0.0
	for _, s := range states {
		ke += 0.5 * s.Mass * s.Velocity.Dot(s.Velocity)
	}
	return ke
}

// PotentialEnergy sums -G·mᵢ·mⱼ/r over unordered pairs, with r² floored
// at body.Epsilon the same way the force law is.
func PotentialEnergy(states []body.State) float64 {
	pe := 0.0
	for i := range states {
		for j := i + 1; j < len(states); j++ {
			d := states[j].Position.Sub(states[i].Position)
			r := math.Sqrt(math.Max(d.Dot(d), body.Epsilon))
			pe -= body.G * states[i].Mass * states[j].Mass / r
		}
	}
	return pe
}

func TotalEnergy(states []body.State) float64 {
	return KineticEnergy(states) + PotentialEnergy(states)
}

func Momentum(states []body.State) mgl64.Vec2 {
	var p mgl64.Vec2
	for _, s := range states {
		p = p.Add(s.Velocity.Mul(s.Mass))
	}
	return p
}

// AngularMomentum is the z component of Σ m·(r × v) about the origin.
func AngularMomentum(states []body.State) float64 {
	l := 0.0
	for _, s := range states {
		l += s.Mass * (s.Position.X()*s.Velocity.Y() - s.Position.Y()*s.Velocity.X())
	}
	return l
}

// CenterOfMass returns the mass-weighted mean position.
func CenterOfMass(states []body.State) mgl64.Vec2 {
	var c mgl64.Vec2
	m := 0.0
	for _, s := range states {
		c = c.Add(s.Position.Mul(s.Mass))
		m += s.Mass
	}
	if m == 0 {
		return c
	}
	return c.Mul(1 / m)
}
