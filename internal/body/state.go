package body

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// G is the gravitational constant in m³/(kg·s²).
	G = 6.674e-11

	// Epsilon is the floor applied to the squared separation of two bodies.
	Epsilon = 1e-10
)

// State is a body's physical state. Only its owning actor changes it.
type State struct {
	Name         string
	Position     mgl64.Vec2
	Velocity     mgl64.Vec2
	Acceleration mgl64.Vec2
	Mass         float64

	// Force is the vector sum of the pulls accumulated this tick.
	Force mgl64.Vec2
	// NetForce sums force magnitudes, not the magnitude of Force.
	// Diagnostic only; integration never reads it.
	NetForce float64
}

// New validates and returns a body at rest with respect to its accumulators.
func New(name string, position, velocity mgl64.Vec2, mass float64) (State, error) {
	s := State{
		Name:     name,
		Position: position,
		Velocity: velocity,
		Mass:     mass,
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Validate reports whether s can take part in a simulation.
func (s State) Validate() error {
	if s.Name == "" {
		return ErrEmptyName
	}
	if !(s.Mass > 0) || math.IsInf(s.Mass, 0) {
		return fmt.Errorf("%w: %q has mass %g", ErrInvalidMass, s.Name, s.Mass)
	}
	if !finite(s.Position) || !finite(s.Velocity) {
		return fmt.Errorf("%w: %q", ErrInvalidVector, s.Name)
	}
	return nil
}

// IsValid reports whether every numeric field is finite.
func (s State) IsValid() bool {
	return finite(s.Position) && finite(s.Velocity) && finite(s.Acceleration) &&
		finite(s.Force) && !math.IsNaN(s.NetForce) && !math.IsInf(s.NetForce, 0)
}

func (s State) String() string {
	return fmt.Sprintf("%s{p=(%.4g, %.4g) v=(%.4g, %.4g) m=%.4g}",
		s.Name, s.Position.X(), s.Position.Y(), s.Velocity.X(), s.Velocity.Y(), s.Mass)
}

func finite(v mgl64.Vec2) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
