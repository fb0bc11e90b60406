package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/publish"
	"github.com/san-kum/orrery/internal/sim"
)

var benchSizes = []int{2, 11, 32, 64}

func benchStates(b *testing.B, n int) []body.State {
	b.Helper()
	cfg := config.DefaultConfig()
	cfg.Bodies = config.RandomBodies(n, 1)
	states, err := cfg.States()
	if err != nil {
		b.Fatal(err)
	}
	return states
}

func BenchmarkSequentialStep(b *testing.B) {
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("bodies=%d", n), func(b *testing.B) {
			states := benchStates(b, n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				states, _ = sim.Step(states, 3600, uint64(i+1))
			}
		})
	}
}

func BenchmarkActorStep(b *testing.B) {
	for _, n := range benchSizes {
		b.Run(fmt.Sprintf("bodies=%d", n), func(b *testing.B) {
			eng, err := engine.New(benchStates(b, n), publish.Discard,
				engine.WithDt(3600), engine.WithLogger(quiet))
			if err != nil {
				b.Fatal(err)
			}
			eng.Start()
			defer eng.Stop()

			ctx := context.Background()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := eng.Step(ctx); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
