package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/orrery/internal/analysis"
	"github.com/san-kum/orrery/internal/config"
	"github.com/san-kum/orrery/internal/export"
	"github.com/san-kum/orrery/internal/storage"
)

const maxPlots = 6

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTICKS\tDT\tBODIES\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%gs\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			run.Dt,
			len(run.Bodies),
			run.Status,
		)
	}

	return w.Flush()
}

// selectBodies returns the requested names, or the recorded ones in name
// order capped at maxPlots.
func selectBodies(tracks map[string][]storage.Point, want []string) ([]string, error) {
	if len(want) > 0 {
		for _, name := range want {
			if _, ok := tracks[name]; !ok {
				return nil, fmt.Errorf("no body %q in this run", name)
			}
		}
		return want, nil
	}
	names := make([]string, 0, len(tracks))
	for name := range tracks {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxPlots {
		names = names[:maxPlots]
	}
	return names, nil
}

func toPath(pts []storage.Point) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(pts))
	for i, p := range pts {
		out[i] = mgl64.Vec2{p.X, p.Y}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no data to plot")
	}
	names, err := selectBodies(tracks, plotBodies)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("ticks: %d\n\n", meta.Ticks)

	if plotOrbit {
		paths := make(map[string][]mgl64.Vec2, len(names))
		for _, name := range names {
			paths[name] = toPath(tracks[name])
		}
		fmt.Print(analysis.OrbitsToASCII(paths, 80, 30))
		sort.Strings(names)
		for i, name := range names {
			fmt.Printf("  %c %s\n", analysis.Marker(i), name)
		}
		return nil
	}

	for _, name := range names {
		pts := tracks[name]
		xs := make([]float64, len(pts))
		ys := make([]float64, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.X, p.Y
		}

		for _, series := range []struct {
			axis string
			data []float64
		}{{"x", xs}, {"y", ys}} {
			graph := asciigraph.Plot(series.data,
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s %s (m) vs tick", name, series.axis)),
			)
			fmt.Println(graph)
			fmt.Println()
		}
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	if len(tracks) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("orbit analysis: %s\n", meta.ID)
	fmt.Printf("dt: %gs, ticks: %d\n\n", meta.Dt, meta.Ticks)

	names := make([]string, 0, len(tracks))
	for name := range tracks {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tSAMPLES\tRADIUS (m)\tSPREAD\tPERIOD (days)")
	for _, name := range names {
		path := toPath(tracks[name])
		mean, spread := analysis.Radius(path, mgl64.Vec2{})

		xs := make([]float64, len(path))
		for i, p := range path {
			xs[i] = p.X()
		}
		period := analysis.DominantPeriod(xs, meta.Dt)

		rel := 0.0
		if mean > 0 {
			rel = spread / mean
		}
		periodText := "-"
		// a period longer than the recording is not resolved
		if period > 0 && period <= float64(len(xs))*meta.Dt {
			periodText = fmt.Sprintf("%.1f", period/86400)
		}
		fmt.Fprintf(w, "%s\t%d\t%.4g\t%.1f%%\t%s\n", name, len(path), mean, rel*100, periodText)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	switch outFormat {
	case "json":
		return st.ExportFile(outPath, args[0])
	case "svg":
		return exportSVG(st, args[0])
	default:
		return fmt.Errorf("unknown format: %s", outFormat)
	}
}

func exportSVG(st *storage.Store, runID string) error {
	tracks, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	paths := make(map[string][]mgl64.Vec2, len(tracks))
	for name, pts := range tracks {
		paths[name] = toPath(pts)
	}

	w := os.Stdout
	if outPath != "" && outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.OrbitsToSVG(w, paths, 800, 800)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tDT\tEXTENT (AU)")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		extent := 0.0
		for _, b := range cfg.Bodies {
			extent = math.Max(extent, math.Hypot(b.Position.X, b.Position.Y))
		}
		fmt.Fprintf(w, "%s\t%d\t%gs\t%.2f\n", name, len(cfg.Bodies), cfg.Dt, extent/config.AU)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s, %d bodies)\n", path, preset, len(cfg.Bodies))
	return nil
}
