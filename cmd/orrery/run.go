package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/engine"
	"github.com/san-kum/orrery/internal/metrics"
	"github.com/san-kum/orrery/internal/publish"
	"github.com/san-kum/orrery/internal/storage"
	"github.com/san-kum/orrery/internal/transport"
	"github.com/san-kum/orrery/internal/viz"
)

func engineOptions(cfg *config.Config, log *slog.Logger) []engine.Option {
	opts := []engine.Option{
		engine.WithDt(cfg.Dt),
		engine.WithInterval(cfg.Interval.Duration),
		engine.WithBarrierTimeout(cfg.BarrierTimeout.Duration),
		engine.WithLogger(log),
	}
	if shuffle {
		s := cfg.Seed
		if s == 0 {
			s = uint64(time.Now().UnixNano())
		}
		opts = append(opts, engine.WithRand(rand.New(rand.NewPCG(s, s>>1|1))))
	}
	return opts
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	states, err := cfg.States()
	if err != nil {
		return err
	}
	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := publish.NewHub()
	pubs := []publish.Publisher{hub, publish.NewLogger(log)}

	var rec *storage.Recorder
	if record {
		st := storage.New(cfg.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err = st.Create(storage.RunMetadata{
			Preset: cfg.Preset,
			Seed:   cfg.Seed,
			Dt:     cfg.Dt,
			Bodies: bodyNames(cfg),
		})
		if err != nil {
			return err
		}
		pubs = append(pubs, rec)
		log.Info("recording", "run", rec.ID(), "dir", filepath.Join(cfg.DataDir, rec.ID()))
	}

	obs := metrics.NewObserver()
	opts := append(engineOptions(cfg, log), engine.WithObserver(obs))

	var db *storage.SQLite
	if sqlitePath != "" {
		db, err = storage.OpenSQLite(sqlitePath, log)
		if err != nil {
			return err
		}
		defer db.Close()
		opts = append(opts, engine.WithObserver(db))
	}

	eng, err := engine.New(states, publish.Multi(pubs...), opts...)
	if err != nil {
		return err
	}
	eng.Start()
	defer eng.Stop()

	log.Info("simulation configured",
		"preset", cfg.Preset,
		"bodies", len(states),
		"pairs", eng.Pairs(),
		"dt", cfg.Dt,
		"ticks", cfg.Ticks,
		"interval", cfg.Interval.Duration)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	start := time.Now()
	var runErr error
	g.Go(func() error {
		defer cancel()
		defer hub.Close()
		runErr = eng.Run(gctx, cfg.Ticks)
		return runErr
	})

	if !noServe {
		srv := transport.NewServer(hub, transport.Welcome{
			Bodies: eng.Bodies(),
			Dt:     cfg.Dt,
		}, transport.WithLogger(log))
		g.Go(func() error {
			return srv.ListenAndServe(gctx, cfg.Listen)
		})
	}

	err = g.Wait()
	elapsed := time.Since(start)

	values := obs.Values()
	if rec != nil {
		if ferr := rec.Finish(eng.Tick(), values, runErr); ferr != nil {
			log.Error("finish recording", "run", rec.ID(), "err", ferr)
		}
	}
	if db != nil && db.Err() != nil {
		log.Warn("sqlite recording incomplete", "err", db.Err())
	}

	printSummary(eng.Tick(), elapsed, hub.Dropped(), values)
	if rec != nil {
		fmt.Printf("run id: %s\n", rec.ID())
	}

	var tickErr *engine.TickError
	if errors.As(err, &tickErr) {
		log.Error("simulation aborted", "tick", tickErr.Tick, "phase", tickErr.Phase, "got", tickErr.Got, "want", tickErr.Want)
	}
	return err
}

func watchSimulation(cmd *cobra.Command, args []string) error {
	if connect != "" {
		return watchRemote(cmd.Context())
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	states, err := cfg.States()
	if err != nil {
		return err
	}

	// the terminal belongs to the viewer, so only warnings reach the log
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	hub := publish.NewHub()
	sub := hub.Subscribe(publish.DefaultBuffer * 4)
	obs := metrics.NewObserver()

	eng, err := engine.New(states, hub, append(engineOptions(cfg, log), engine.WithObserver(obs))...)
	if err != nil {
		return err
	}
	eng.Start()
	defer eng.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		defer hub.Close()
		errc <- eng.Run(ctx, cfg.Ticks)
	}()

	title := cfg.Preset
	if title == "" {
		title = "orrery"
	}
	m := viz.NewModel(sub.C(),
		viz.WithTitle(title),
		viz.WithTheme(theme),
		viz.WithStats(obs.Values),
	)
	uiErr := viz.Run(m)

	cancel()
	return errors.Join(uiErr, <-errc)
}

func watchRemote(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c, err := transport.Dial(dialCtx, connect, publish.DefaultBuffer*4, log)
	if err != nil {
		return err
	}
	defer c.Close()

	m := viz.NewModel(c.Events(),
		viz.WithTitle(connect),
		viz.WithTheme(theme),
	)
	return viz.Run(m)
}

func bodyNames(cfg *config.Config) []string {
	names := make([]string, len(cfg.Bodies))
	for i, b := range cfg.Bodies {
		names[i] = b.Name
	}
	return names
}

func printSummary(ticks uint64, elapsed time.Duration, dropped uint64, values map[string]float64) {
	fmt.Printf("completed %d ticks in %v\n", ticks, elapsed.Round(time.Millisecond))
	if dropped > 0 {
		fmt.Printf("viewer events dropped: %d\n", dropped)
	}
	if len(values) == 0 {
		return
	}
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, values[name])
	}
}
