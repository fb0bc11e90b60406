package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/publish"
)

type pair struct {
	receiver, source int
}

// Engine owns the body actors and sequences ticks. Step and Run may be
// called from one goroutine at a time; Snapshot and Tick are safe anywhere.
type Engine struct {
	dt             float64
	barrierTimeout time.Duration
	interval       time.Duration
	rng            *rand.Rand
	jitter         func() time.Duration
	trace          func(Delivery)
	drop           func(to string, msg body.Message) bool
	log            *slog.Logger
	observers      []Observer
	pub            publish.Publisher

	actors []*actor
	byName map[string]*actor
	pairs  []pair

	forces    barrier
	positions barrier
	moves     []body.Moved
	states    []body.State

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup

	stepMu sync.Mutex
	err    error

	mu   sync.RWMutex
	tick uint64
	last []body.State
}

// New builds an engine for states. Bodies are validated and their force
// accumulators cleared; names must be unique. A nil publisher discards
// events.
func New(states []body.State, pub publish.Publisher, opts ...Option) (*Engine, error) {
	if len(states) == 0 {
		return nil, ErrNoBodies
	}
	if pub == nil {
		pub = publish.Discard
	}

	e := &Engine{
		dt:             DefaultDt,
		barrierTimeout: DefaultBarrierTimeout,
		log:            slog.Default(),
		pub:            pub,
		byName:         make(map[string]*actor, len(states)),
		moves:          make([]body.Moved, len(states)),
		states:         make([]body.State, len(states)),
		last:           make([]body.State, len(states)),
		quit:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !(e.dt > 0) {
		return nil, fmt.Errorf("engine: dt must be positive, got %g", e.dt)
	}
	if e.barrierTimeout <= 0 {
		return nil, fmt.Errorf("engine: barrier timeout must be positive, got %v", e.barrierTimeout)
	}

	for i, s := range states {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := e.byName[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateBody, s.Name)
		}
		s.Force = mgl64.Vec2{}
		s.NetForce = 0

		a := &actor{idx: i, name: s.Name, state: s, box: newMailbox(), eng: e}
		e.actors = append(e.actors, a)
		e.byName[s.Name] = a
		e.last[i] = s
	}

	for r := range e.actors {
		for s := range e.actors {
			if r != s {
				e.pairs = append(e.pairs, pair{receiver: r, source: s})
			}
		}
	}

	return e, nil
}

// Start launches one goroutine per body. Step calls it implicitly.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(len(e.actors))
		for _, a := range e.actors {
			go a.run()
		}
		e.log.Info("engine started", "bodies", len(e.actors), "pairs", len(e.pairs), "dt", e.dt)
	})
}

// Stop shuts the actors down and waits for them to exit.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.quit)
	})
	e.wg.Wait()
}

// Step runs exactly one tick. ctx is only checked before the tick starts.
// After a failed tick every later call returns the same error.
func (e *Engine) Step(ctx context.Context) (*TickReport, error) {
	e.stepMu.Lock()
	defer e.stepMu.Unlock()

	if e.err != nil {
		return nil, e.err
	}
	select {
	case <-e.quit:
		return nil, ErrStopped
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.Start()

	tick := e.Tick() + 1
	start := time.Now()

	for _, a := range e.actors {
		a.box.push(body.ResetForce(tick))
	}

	forcesDone := e.forces.arm(tick, len(e.pairs))
	for _, p := range e.dispatchOrder() {
		receiver := e.actors[p.receiver].name
		e.deliver(e.actors[p.source].name, body.RequestState(receiver, tick))
	}
	if err := e.await(forcesDone, &e.forces, tick, PhaseForce); err != nil {
		return nil, err
	}
	forceAcks, _ := e.forces.count()

	positionsDone := e.positions.arm(tick, len(e.actors))
	for _, a := range e.actors {
		a.box.push(body.ComputePosition(e.dt, tick))
	}
	if err := e.await(positionsDone, &e.positions, tick, PhaseIntegrate); err != nil {
		return nil, err
	}

	report := &TickReport{
		Tick:      tick,
		Dt:        e.dt,
		SimTime:   float64(tick) * e.dt,
		States:    append([]body.State(nil), e.states...),
		Moves:     append([]body.Moved(nil), e.moves...),
		ForceAcks: forceAcks,
		Elapsed:   time.Since(start),
	}

	e.mu.Lock()
	e.tick = tick
	copy(e.last, report.States)
	e.mu.Unlock()

	e.log.Debug("tick complete", "tick", tick, "elapsed", report.Elapsed)
	for _, o := range e.observers {
		o.OnTick(report)
	}
	return report, nil
}

// Run steps until ctx is canceled or, when ticks > 0, that many ticks have
// completed. Cancellation is honoured between ticks and is not an error.
func (e *Engine) Run(ctx context.Context, ticks int) error {
	var pace <-chan time.Time
	if e.interval > 0 {
		t := time.NewTicker(e.interval)
		defer t.Stop()
		pace = t.C
	}

	for n := 0; ticks <= 0 || n < ticks; n++ {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := e.Step(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}
		if pace != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-pace:
			}
		}
	}
	return nil
}

// Tick returns the number of completed ticks.
func (e *Engine) Tick() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tick
}

// Snapshot returns the bodies as of the last completed tick.
func (e *Engine) Snapshot() []body.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]body.State(nil), e.last...)
}

// Bodies returns the body names in engine order.
func (e *Engine) Bodies() []string {
	names := make([]string, len(e.actors))
	for i, a := range e.actors {
		names[i] = a.name
	}
	return names
}

// Pairs returns the number of force exchanges per tick, N·(N−1).
func (e *Engine) Pairs() int { return len(e.pairs) }

func (e *Engine) Dt() float64 { return e.dt }

func (e *Engine) deliver(to string, msg body.Message) {
	a, ok := e.byName[to]
	if !ok {
		e.log.Error("undeliverable message", "to", to, "kind", msg.Kind, "tick", msg.Tick, "err", ErrUnknownBody)
		return
	}
	if e.drop != nil && e.drop(to, msg) {
		return
	}
	a.box.push(msg)
}

func (e *Engine) dispatchOrder() []pair {
	if e.rng == nil {
		return e.pairs
	}
	order := append([]pair(nil), e.pairs...)
	e.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}

func (e *Engine) await(done <-chan struct{}, b *barrier, tick uint64, phase Phase) error {
	timer := time.NewTimer(e.barrierTimeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-e.quit:
		e.err = ErrStopped
		return e.err
	case <-timer.C:
	}

	got, want := b.count()
	err := &TickError{Tick: tick, Phase: phase, Got: got, Want: want, Wrapped: ErrBarrierTimeout}
	backlog := make(map[string]int, len(e.actors))
	for _, a := range e.actors {
		if n := a.box.len(); n > 0 {
			backlog[a.name] = n
		}
	}
	e.log.Error("barrier incomplete, halting simulation",
		"tick", tick, "phase", phase, "got", got, "want", want,
		"timeout", e.barrierTimeout, "backlog", backlog)
	e.err = err
	return err
}
