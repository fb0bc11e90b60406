package metrics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/orrery/internal/body"
)

// MomentumDrift tracks the largest change in total linear momentum,
// relative to the sum of |mᵢvᵢ| at the first sample.
type MomentumDrift struct {
	name     string
	initial  mgl64.Vec2
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(states []body.State, moves []body.Moved, t float64) {
	if len(states) == 0 {
		return
	}
	p := Momentum(states)
	if m.samples == 0 {
		m.initial = p
		for _, s := range states {
			m.scale += s.Mass * s.Velocity.Len()
		}
	}
	m.samples++

	if m.scale > 0 {
		m.maxDrift = math.Max(m.maxDrift, p.Sub(m.initial).Len()/m.scale)
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = mgl64.Vec2{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}

type AngularMomentumDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{name: "angular_momentum_drift"}
}

func (a *AngularMomentumDrift) Name() string { return a.name }

func (a *AngularMomentumDrift) Observe(states []body.State, moves []body.Moved, t float64) {
	if len(states) == 0 {
		return
	}
	l := AngularMomentum(states)
	if a.samples == 0 {
		a.initial = l
	}
	a.samples++

	if a.initial != 0 {
		a.maxDrift = math.Max(a.maxDrift, math.Abs(l-a.initial)/math.Abs(a.initial))
	}
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = 0
	a.maxDrift = 0
	a.samples = 0
}

// MaxNetForce is the largest per-body sum of force magnitudes seen in any
// tick. It reads the accumulators carried by the moves, since states
// arrive with them already cleared.
type MaxNetForce struct {
	name string
	max  float64
}

func NewMaxNetForce() *MaxNetForce {
	return &MaxNetForce{name: "max_net_force"}
}

func (f *MaxNetForce) Name() string { return f.name }

func (f *MaxNetForce) Observe(states []body.State, moves []body.Moved, t float64) {
	for _, mv := range moves {
		f.max = math.Max(f.max, mv.NetForce)
	}
}

func (f *MaxNetForce) Value() float64 { return f.max }

func (f *MaxNetForce) Reset() { f.max = 0 }
