package metrics

import (
	"context"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/sim"
)

func mustState(t *testing.T, name string, pos, vel mgl64.Vec2, mass float64) body.State {
	t.Helper()
	s, err := body.New(name, pos, vel, mass)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func orbit(t *testing.T) []body.State {
	const (
		sunMass = 1.989e30
		au      = 1.496e11
	)
	v := math.Sqrt(body.G * sunMass / au)
	return []body.State{
		mustState(t, "sun", mgl64.Vec2{}, mgl64.Vec2{}, sunMass),
		mustState(t, "earth", mgl64.Vec2{au, 0}, mgl64.Vec2{0, v}, 5.972e24),
	}
}

func TestEnergyTwoBodies(t *testing.T) {
	states := []body.State{
		mustState(t, "a", mgl64.Vec2{0, 0}, mgl64.Vec2{3, 4}, 2),
		mustState(t, "b", mgl64.Vec2{10, 0}, mgl64.Vec2{0, 0}, 5),
	}

	ke := 0.5 * 2 * 25
	pe := -body.G * 2 * 5 / 10
	expected := ke + pe

	m := NewEnergy()
	m.Observe(states, nil, 0)

	if math.Abs(m.Value()-expected) > 1e-12 {
		t.Errorf("expected energy %g, got %g", expected, m.Value())
	}
	if math.Abs(KineticEnergy(states)-ke) > 1e-12 {
		t.Errorf("expected kinetic %g, got %g", ke, KineticEnergy(states))
	}
}

func TestPotentialEnergySoftened(t *testing.T) {
	states := []body.State{
		mustState(t, "a", mgl64.Vec2{}, mgl64.Vec2{}, 1),
		mustState(t, "b", mgl64.Vec2{}, mgl64.Vec2{}, 1),
	}
	pe := PotentialEnergy(states)
	if math.IsInf(pe, 0) || math.IsNaN(pe) {
		t.Fatalf("coincident bodies should give finite energy, got %g", pe)
	}
	expected := -body.G / math.Sqrt(body.Epsilon)
	if math.Abs(pe-expected) > 1e-18 {
		t.Errorf("expected %g, got %g", expected, pe)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	m.Observe(orbit(t), nil, 0)
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestEnergyDriftCircularOrbit(t *testing.T) {
	s, err := sim.New(orbit(t), 3600)
	if err != nil {
		t.Fatal(err)
	}

	drift := NewEnergyDrift()
	drift.Observe(s.States(), nil, 0)
	err = s.Run(context.Background(), 24*30, func(tick uint64, states []body.State) bool {
		drift.Observe(states, nil, float64(tick)*3600)
		return true
	})
	if err != nil {
		t.Fatal(err)
	}

	if drift.Value() == 0 {
		t.Error("expected some drift from a first-order integrator")
	}
	if drift.Value() > 1e-3 {
		t.Errorf("energy drift %g too large over a month", drift.Value())
	}
}

func TestMomentumConserved(t *testing.T) {
	states := orbit(t)
	before := Momentum(states)

	after, _ := sim.Step(states, 3600, 1)
	for i := 2; i <= 10; i++ {
		after, _ = sim.Step(after, 3600, uint64(i))
	}

	diff := Momentum(after).Sub(before).Len()
	scale := states[1].Mass * states[1].Velocity.Len()
	if diff/scale > 1e-9 {
		t.Errorf("momentum changed by %g relative", diff/scale)
	}
}

func TestAngularMomentum(t *testing.T) {
	states := []body.State{
		mustState(t, "a", mgl64.Vec2{2, 0}, mgl64.Vec2{0, 3}, 4),
		mustState(t, "b", mgl64.Vec2{0, 1}, mgl64.Vec2{5, 0}, 1),
	}
	// 4*(2*3 - 0) + 1*(0 - 1*5)
	if l := AngularMomentum(states); l != 19 {
		t.Errorf("expected 19, got %g", l)
	}
}

func TestCenterOfMass(t *testing.T) {
	states := []body.State{
		mustState(t, "a", mgl64.Vec2{0, 0}, mgl64.Vec2{}, 3),
		mustState(t, "b", mgl64.Vec2{4, 8}, mgl64.Vec2{}, 1),
	}
	if c := CenterOfMass(states); !c.ApproxEqual(mgl64.Vec2{1, 2}) {
		t.Errorf("expected {1 2}, got %v", c)
	}
	if c := CenterOfMass(nil); c != (mgl64.Vec2{}) {
		t.Errorf("expected zero, got %v", c)
	}
}

func TestMaxNetForce(t *testing.T) {
	m := NewMaxNetForce()
	m.Observe(nil, []body.Moved{{Name: "a", NetForce: 3}, {Name: "b", NetForce: 7}}, 0)
	m.Observe(nil, []body.Moved{{Name: "a", NetForce: 5}}, 1)

	if m.Value() != 7 {
		t.Errorf("expected 7, got %g", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}
