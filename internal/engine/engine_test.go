package engine_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/publish"
	"github.com/san-kum/orrery/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type recorder struct {
	mu     sync.Mutex
	events []publish.Event
	err    error
}

func (r *recorder) Publish(ev publish.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recorder) Events() []publish.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]publish.Event(nil), r.events...)
}

type tracer struct {
	mu  sync.Mutex
	log []engine.Delivery
}

func (t *tracer) record(d engine.Delivery) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, d)
}

func (t *tracer) deliveries() []engine.Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]engine.Delivery(nil), t.log...)
}

func mustBody(name string, x, y, vx, vy, mass float64) body.State {
	s, err := body.New(name, mgl64.Vec2{x, y}, mgl64.Vec2{vx, vy}, mass)
	Expect(err).NotTo(HaveOccurred())
	return s
}

func earthAndSun() []body.State {
	return []body.State{
		mustBody("earth", 0, 0, 0, 0, 5.972e24),
		mustBody("sun", 1.496e11, 0, 0, 0, 1.989e30),
	}
}

func fiveBodies() []body.State {
	return []body.State{
		mustBody("sun", 0, 0, 0, 0, 1.989e30),
		mustBody("mercury", 5.79e10, 0, 0, 47362, 3.301e23),
		mustBody("venus", 1.082e11, 0, 0, 35020, 4.867e24),
		mustBody("earth", 1.496e11, 0, 0, 29783, 5.972e24),
		mustBody("mars", 2.279e11, 0, 0, 24077, 6.39e23),
	}
}

func relClose(a, b, scale float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(scale, 1)
}

var _ = Describe("Engine", func() {
	var (
		ctx context.Context
		eng *engine.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		eng = nil
	})

	AfterEach(func() {
		if eng != nil {
			eng.Stop()
		}
	})

	Describe("construction", func() {
		It("rejects an empty universe", func() {
			_, err := engine.New(nil, nil)
			Expect(err).To(MatchError(engine.ErrNoBodies))
		})

		It("rejects duplicate names", func() {
			b := earthAndSun()
			_, err := engine.New([]body.State{b[0], b[1], b[0]}, nil)
			Expect(errors.Is(err, engine.ErrDuplicateBody)).To(BeTrue())
		})

		It("rejects non-positive mass", func() {
			_, err := engine.New([]body.State{{Name: "rock", Mass: 0}}, nil)
			Expect(errors.Is(err, body.ErrInvalidMass)).To(BeTrue())
		})

		It("rejects a non-positive dt", func() {
			_, err := engine.New(earthAndSun(), nil, engine.WithDt(0))
			Expect(err).To(HaveOccurred())
		})

		It("clears force accumulators on creation", func() {
			b := earthAndSun()
			b[0].Force = mgl64.Vec2{1, 1}
			b[0].NetForce = 3

			var err error
			eng, err = engine.New(b, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Snapshot()[0].Force).To(Equal(mgl64.Vec2{}))
			Expect(eng.Snapshot()[0].NetForce).To(BeZero())
			Expect(eng.Pairs()).To(Equal(2))
			Expect(eng.Bodies()).To(Equal([]string{"earth", "sun"}))
		})
	})

	Describe("a two-body tick", func() {
		var pub *recorder

		BeforeEach(func() {
			pub = &recorder{}
			var err error
			eng, err = engine.New(earthAndSun(), pub, engine.WithDt(60000), engine.WithLogger(quiet))
			Expect(err).NotTo(HaveOccurred())
		})

		It("pulls the light body toward the heavy one", func() {
			r, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(r.Tick).To(Equal(uint64(1)))
			Expect(r.ForceAcks).To(Equal(2))
			Expect(r.Moves[0].Force.X()).To(BeNumerically(">", 0))
			Expect(r.Moves[0].Force.Y()).To(BeZero())
			Expect(r.States[0].Position.X()).To(BeNumerically(">", 0))
			Expect(r.States[1].Position.X()).To(BeNumerically("<", 1.496e11))
		})

		It("computes the pairwise magnitude G·m1·m2/r²", func() {
			r, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())

			want := body.G * 5.972e24 * 1.989e30 / (1.496e11 * 1.496e11)
			Expect(r.Moves[0].NetForce).To(BeNumerically("~", want, want*1e-12))
			Expect(r.Moves[0].Force.Len()).To(BeNumerically("~", want, want*1e-12))
		})

		It("computes equal and opposite forces on both bodies", func() {
			r, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())

			a, b := r.Moves[0], r.Moves[1]
			Expect(a.NetForce).To(BeNumerically("~", b.NetForce, a.NetForce*1e-12))
			Expect(a.Force.Add(b.Force).Len()).To(BeNumerically("<", a.NetForce*1e-12))
		})

		It("publishes one event per body with the new position", func() {
			r, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())

			events := pub.Events()
			Expect(events).To(HaveLen(2))
			byName := map[string]publish.Event{}
			for _, ev := range events {
				byName[ev.Name] = ev
			}
			Expect(byName["earth"].X).To(Equal(r.States[0].Position.X()))
			Expect(byName["earth"].Tick).To(Equal(uint64(1)))
			Expect(byName["sun"].Y).To(Equal(r.States[1].Position.Y()))
		})

		It("leaves accumulators cleared after integration", func() {
			_, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			for _, s := range eng.Snapshot() {
				Expect(s.Force).To(Equal(mgl64.Vec2{}))
				Expect(s.NetForce).To(BeZero())
			}
		})
	})

	Describe("the force barrier", func() {
		It("applies all N·(N−1) contributions before any integration, every tick", func() {
			tr := &tracer{}
			var err error
			eng, err = engine.New(fiveBodies(), nil,
				engine.WithLogger(quiet),
				engine.WithRand(rand.New(rand.NewPCG(1, 2))),
				engine.WithJitter(func() time.Duration { return rand.N(150 * time.Microsecond) }),
				engine.WithTrace(tr.record),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Pairs()).To(Equal(20))

			const ticks = 8
			for i := 0; i < ticks; i++ {
				r, err := eng.Step(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(r.ForceAcks).To(Equal(20))
			}

			log := tr.deliveries()
			for tick := uint64(1); tick <= ticks; tick++ {
				forces, lastForce, firstPosition := 0, -1, -1
				for i, d := range log {
					if d.Tick != tick {
						continue
					}
					switch d.Kind {
					case body.KindComputeForce:
						forces++
						lastForce = i
					case body.KindComputePosition:
						if firstPosition < 0 {
							firstPosition = i
						}
					}
				}
				Expect(forces).To(Equal(20), "tick %d", tick)
				Expect(firstPosition).To(BeNumerically(">", lastForce), "tick %d integrated early", tick)
			}
		})

		It("fails the tick when a contribution is lost", func() {
			var once sync.Once
			var err error
			eng, err = engine.New(fiveBodies(), nil,
				engine.WithLogger(quiet),
				engine.WithBarrierTimeout(150*time.Millisecond),
				engine.WithDrop(func(to string, msg body.Message) bool {
					dropped := false
					if msg.Kind == body.KindComputeForce && to == "earth" {
						once.Do(func() { dropped = true })
					}
					return dropped
				}),
			)
			Expect(err).NotTo(HaveOccurred())

			_, err = eng.Step(ctx)
			Expect(errors.Is(err, engine.ErrBarrierTimeout)).To(BeTrue())

			var te *engine.TickError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.Tick).To(Equal(uint64(1)))
			Expect(te.Phase).To(Equal(engine.PhaseForce))
			Expect(te.Got).To(Equal(19))
			Expect(te.Want).To(Equal(20))

			_, again := eng.Step(ctx)
			Expect(again).To(MatchError(err))
			Expect(eng.Tick()).To(BeZero())
			Expect(eng.Run(ctx, 3)).To(MatchError(err))
		})
	})

	It("agrees with the sequential reference", func() {
		bodies := fiveBodies()
		var err error
		eng, err = engine.New(bodies, nil,
			engine.WithLogger(quiet),
			engine.WithDt(3600),
			engine.WithRand(rand.New(rand.NewPCG(7, 7))),
		)
		Expect(err).NotTo(HaveOccurred())
		ref, err := sim.New(bodies, 3600)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 24; i++ {
			_, err := eng.Step(ctx)
			Expect(err).NotTo(HaveOccurred())
			ref.Step()
		}

		got, want := eng.Snapshot(), ref.States()
		for i := range want {
			scale := want[i].Position.Len()
			Expect(relClose(got[i].Position.X(), want[i].Position.X(), scale)).To(BeTrue(),
				fmt.Sprintf("%s x: %g vs %g", want[i].Name, got[i].Position.X(), want[i].Position.X()))
			Expect(relClose(got[i].Position.Y(), want[i].Position.Y(), scale)).To(BeTrue(),
				fmt.Sprintf("%s y: %g vs %g", want[i].Name, got[i].Position.Y(), want[i].Position.Y()))
		}
	})

	It("treats publisher failures as non-fatal", func() {
		pub := &recorder{err: errors.New("viewer gone")}
		var err error
		eng, err = engine.New(earthAndSun(), pub, engine.WithLogger(quiet))
		Expect(err).NotTo(HaveOccurred())

		Expect(eng.Run(ctx, 3)).To(Succeed())
		Expect(eng.Tick()).To(Equal(uint64(3)))
		Expect(pub.Events()).To(HaveLen(6))
	})

	It("moves a lone body along its velocity", func() {
		var err error
		eng, err = engine.New([]body.State{mustBody("probe", 0, 0, 2, 3, 1)}, nil,
			engine.WithLogger(quiet), engine.WithDt(10))
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Pairs()).To(BeZero())

		r, err := eng.Step(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.States[0].Position).To(Equal(mgl64.Vec2{20, 30}))
	})

	Describe("running", func() {
		BeforeEach(func() {
			var err error
			eng, err = engine.New(fiveBodies(), nil, engine.WithLogger(quiet))
			Expect(err).NotTo(HaveOccurred())
		})

		It("stops after the requested number of ticks and notifies observers", func() {
			eng.Stop()
			var seen []uint64
			var err error
			eng, err = engine.New(fiveBodies(), nil,
				engine.WithLogger(quiet),
				engine.WithObserver(engine.ObserverFunc(func(r *engine.TickReport) {
					seen = append(seen, r.Tick)
				})),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(eng.Run(ctx, 4)).To(Succeed())
			Expect(eng.Tick()).To(Equal(uint64(4)))
			Expect(seen).To(Equal([]uint64{1, 2, 3, 4}))
		})

		It("returns cleanly at a tick boundary when canceled", func() {
			paced, err := engine.New(fiveBodies(), nil,
				engine.WithLogger(quiet), engine.WithInterval(5*time.Millisecond))
			Expect(err).NotTo(HaveOccurred())
			defer paced.Stop()

			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- paced.Run(runCtx, 0) }()

			Eventually(paced.Tick).Should(BeNumerically(">=", 3))
			cancel()
			Eventually(done).Should(Receive(BeNil()))

			for _, s := range paced.Snapshot() {
				Expect(s.NetForce).To(BeZero())
			}
		})

		It("refuses to step once stopped", func() {
			eng.Stop()
			_, err := eng.Step(ctx)
			Expect(err).To(MatchError(engine.ErrStopped))
		})

		It("does not start a tick on a canceled context", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := eng.Step(canceled)
			Expect(err).To(MatchError(context.Canceled))
			Expect(eng.Run(canceled, 0)).To(Succeed())
			Expect(eng.Tick()).To(BeZero())
		})
	})
})
