package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/publish"
	"github.com/san-kum/orrery/internal/sim"
)

const benchDt = 3600.0

type benchResult struct {
	bodies     int
	pairs      int
	sequential time.Duration
	actors     time.Duration
	deviation  float64
}

func benchEngines(cmd *cobra.Command, args []string) error {
	if benchTicks <= 0 {
		return fmt.Errorf("--ticks must be positive")
	}

	fmt.Printf("benchmarking %d ticks per size\n\n", benchTicks)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODIES\tPAIRS\tSEQ/TICK\tACTORS/TICK\tRATIO\tMAX DEVIATION (m)")

	for _, n := range benchSizes {
		r, err := benchOnce(cmd.Context(), n, benchTicks, seed)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%d\t%v\t%v\t%.1fx\t%.3g\n",
			r.bodies, r.pairs,
			r.sequential/time.Duration(benchTicks),
			r.actors/time.Duration(benchTicks),
			float64(r.actors)/float64(r.sequential),
			r.deviation)
	}
	return w.Flush()
}

func benchOnce(ctx context.Context, n, ticks int, seed uint64) (benchResult, error) {
	cfg := config.DefaultConfig()
	cfg.Bodies = config.RandomBodies(n, seed)
	states, err := cfg.States()
	if err != nil {
		return benchResult{}, err
	}

	s, err := sim.New(states, benchDt)
	if err != nil {
		return benchResult{}, err
	}
	start := time.Now()
	for i := 0; i < ticks; i++ {
		s.Step()
	}
	seqTime := time.Since(start)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng, err := engine.New(states, publish.Discard, engine.WithDt(benchDt), engine.WithLogger(quiet))
	if err != nil {
		return benchResult{}, err
	}
	eng.Start()
	defer eng.Stop()

	start = time.Now()
	for i := 0; i < ticks; i++ {
		if _, err := eng.Step(ctx); err != nil {
			return benchResult{}, err
		}
	}
	actorTime := time.Since(start)

	return benchResult{
		bodies:     n,
		pairs:      eng.Pairs(),
		sequential: seqTime,
		actors:     actorTime,
		deviation:  maxDeviation(s.States(), eng.Snapshot()),
	}, nil
}

func maxDeviation(a, b []body.State) float64 {
	d := 0.0
	for i := range a {
		if i < len(b) {
			d = math.Max(d, a[i].Position.Sub(b[i].Position).Len())
		}
	}
	return d
}
