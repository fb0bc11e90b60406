package metrics

import (
	"sync"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/engine"
)

type Metric interface {
	Name() string
	Observe(states []body.State, moves []body.Moved, t float64)
	Value() float64
	Reset()
}

func Default() []Metric {
	return []Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewAngularMomentumDrift(),
		NewMaxNetForce(),
	}
}

// Observer feeds every completed tick to a set of metrics. It is an
// engine.Observer and may be read from other goroutines.
type Observer struct {
	mu      sync.Mutex
	metrics []Metric
	ticks   uint64
}

func NewObserver(ms ...Metric) *Observer {
	if len(ms) == 0 {
		ms = Default()
	}
	return &Observer{metrics: ms}
}

func (o *Observer) OnTick(r *engine.TickReport) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.metrics {
		m.Observe(r.States, r.Moves, r.SimTime)
	}
	o.ticks = r.Tick
}

func (o *Observer) Ticks() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ticks
}

// Values returns the current value of each metric keyed by name.
func (o *Observer) Values() map[string]float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]float64, len(o.metrics))
	for _, m := range o.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (o *Observer) Names() []string {
	out := make([]string, len(o.metrics))
	for i, m := range o.metrics {
		out[i] = m.Name()
	}
	return out
}

func (o *Observer) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.metrics {
		m.Reset()
	}
	o.ticks = 0
}
