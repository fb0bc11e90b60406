package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/orrery/internal/config"
)

var (
	dataDir   string
	logLevel  string
	logFormat string
	envFile   string

	configFile     string
	preset         string
	dt             float64
	ticks          int
	interval       time.Duration
	barrierTimeout time.Duration
	listen         string
	seed           uint64
	shuffle        bool
	noServe        bool
	record         bool
	sqlitePath     string

	connect    string
	theme      string
	outPath    string
	outFormat  string
	plotBodies []string
	plotOrbit  bool
	benchSizes []int
	benchTicks int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "orrery",
		Short:         "actor-based n-body gravity simulation",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file (default .env)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation and stream positions to viewers",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&listen, "listen", config.DefaultListen, "websocket listen address")
	runCmd.Flags().BoolVar(&noServe, "no-serve", false, "do not start the websocket server")
	runCmd.Flags().BoolVar(&record, "record", false, "record positions under the data directory")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also record every tick into this sqlite file")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "watch a simulation in the terminal",
		Long:  "watch runs a simulation in-process and draws it, or with --connect follows a running server.",
		Args:  cobra.NoArgs,
		RunE:  watchSimulation,
	}
	addSimFlags(watchCmd)
	watchCmd.Flags().StringVar(&connect, "connect", "", "websocket url of a running server, e.g. ws://localhost:8888/ws")
	watchCmd.Flags().StringVar(&theme, "theme", "night", "color theme")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot recorded trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotBodies, "body", nil, "bodies to plot (default: up to six)")
	plotCmd.Flags().BoolVar(&plotOrbit, "orbit", false, "draw x-y orbits instead of coordinates over time")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate orbital radii and periods",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json or an svg orbit plot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file")
	exportCmd.Flags().StringVar(&outFormat, "format", "json", "output format (json, svg)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file (.yaml or .toml)",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "preset to start from")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare sequential and actor stepping",
		RunE:  benchEngines,
	}
	benchCmd.Flags().IntSliceVar(&benchSizes, "bodies", []int{2, 11, 32, 64}, "body counts")
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 50, "ticks per measurement")
	benchCmd.Flags().Uint64Var(&seed, "seed", config.DefaultRandomSeed, "random seed")

	rootCmd.AddCommand(runCmd, watchCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, initCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "body preset (see 'presets')")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "seconds of simulated time per tick")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "ticks to run (0 = until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", config.DefaultInterval, "wall-clock pause between ticks")
	cmd.Flags().DurationVar(&barrierTimeout, "barrier-timeout", config.DefaultBarrierTimeout, "how long a tick phase may wait")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for the random preset and dispatch shuffling")
	cmd.Flags().BoolVar(&shuffle, "shuffle", false, "shuffle force request dispatch order")
}

// loadConfig layers defaults, the config file, the environment, the preset
// flag and finally any flag set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	var files []string
	if envFile != "" {
		files = append(files, envFile)
	}
	if err := config.ApplyEnv(cfg, files...); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("preset") {
		if err := cfg.UsePreset(preset); err != nil {
			return nil, err
		}
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("interval") {
		cfg.Interval = config.Duration{Duration: interval}
	}
	if flags.Changed("barrier-timeout") {
		cfg.BarrierTimeout = config.Duration{Duration: barrierTimeout}
	}
	if flags.Lookup("listen") != nil && flags.Changed("listen") {
		cfg.Listen = listen
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("bad --log-level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	switch strings.ToLower(format) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("bad --log-format %q (text, json)", format)
	}
	slog.SetDefault(slog.New(h))
	return nil
}
