package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/san-kum/orrery/internal/publish"
)

func TestStoreRecordLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	rec, err := st.Create(RunMetadata{Preset: "binary", Seed: 42, Dt: 60000, Bodies: []string{"earth", "sun"}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if rec.ID() == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(rec.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Status != StatusRunning {
		t.Errorf("expected running, got %s", meta.Status)
	}

	events := []publish.Event{
		{Name: "earth", X: 1, Y: 0, Tick: 1},
		{Name: "sun", X: 1.496e11, Y: -3.5, Tick: 1},
		{Name: "earth", X: 2.5, Y: 0.125, Tick: 2},
		{Name: "sun", X: 1.495e11, Y: -7, Tick: 2},
	}
	for _, ev := range events {
		if err := rec.Publish(ev); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}
	if rec.Rows() != 4 {
		t.Errorf("expected 4 rows, got %d", rec.Rows())
	}

	if err := rec.Finish(2, map[string]float64{"energy": 1.5}, nil); err != nil {
		t.Fatalf("finish failed: %v", err)
	}

	meta, err = st.Load(rec.ID())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "binary" {
		t.Errorf("expected preset 'binary', got '%s'", meta.Preset)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Ticks != 2 || meta.Status != StatusComplete {
		t.Errorf("expected 2 complete ticks, got %d %s", meta.Ticks, meta.Status)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}

	tracks, err := st.LoadTrajectories(rec.ID())
	if err != nil {
		t.Fatalf("load trajectories failed: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 bodies, got %d", len(tracks))
	}

	earth, err := st.LoadTrajectory(rec.ID(), "earth")
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{Tick: 1, X: 1, Y: 0}, {Tick: 2, X: 2.5, Y: 0.125}}
	if len(earth) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(earth))
	}
	for i := range want {
		if earth[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], earth[i])
		}
	}

	if _, err := st.LoadTrajectory(rec.ID(), "pluto"); err == nil {
		t.Error("expected error for unknown body")
	}
}

func TestRecorderFailedRun(t *testing.T) {
	st := New(t.TempDir())
	rec, err := st.Create(RunMetadata{})
	if err != nil {
		t.Fatal(err)
	}

	if err := rec.Finish(3, nil, errors.New("barrier timeout")); err != nil {
		t.Fatal(err)
	}
	if err := rec.Publish(publish.Event{Name: "late"}); err == nil {
		t.Error("expected error publishing to a finished recorder")
	}
	if err := rec.Finish(4, nil, nil); err != nil {
		t.Errorf("second finish should be a no-op, got %v", err)
	}

	meta, err := st.Load(rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	if meta.Status != StatusFailed || meta.Error != "barrier timeout" || meta.Ticks != 3 {
		t.Errorf("unexpected metadata %+v", meta)
	}
}

func TestRecorderConcurrentPublish(t *testing.T) {
	st := New(t.TempDir())
	rec, err := st.Create(RunMetadata{Preset: "random"})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for tick := uint64(1); tick <= 50; tick++ {
				rec.Publish(publish.Event{Name: string(rune('a' + w)), X: float64(tick), Tick: tick})
			}
		}(w)
	}
	wg.Wait()

	if err := rec.Finish(50, nil, nil); err != nil {
		t.Fatal(err)
	}

	tracks, err := st.LoadTrajectories(rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	for name, pts := range tracks {
		if len(pts) != 50 {
			t.Errorf("%s: expected 50 points, got %d", name, len(pts))
		}
		for i, p := range pts {
			if p.Tick != uint64(i+1) {
				t.Errorf("%s: point %d has tick %d", name, i, p.Tick)
				break
			}
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, p := range []string{"solar", "inner"} {
		rec, err := st.Create(RunMetadata{Preset: p})
		if err != nil {
			t.Fatal(err)
		}
		rec.Finish(0, nil, nil)
	}
	os.MkdirAll(filepath.Join(tmpDir, "junk"), 0755)

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Preset != "solar" || runs[1].Preset != "inner" {
		t.Errorf("expected oldest first, got %s then %s", runs[0].Preset, runs[1].Preset)
	}
}

func TestStoreLoad_NotFound(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadTrajectories("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	rec, err := st.Create(RunMetadata{Preset: "binary", Dt: 60000})
	if err != nil {
		t.Fatal(err)
	}
	rec.Publish(publish.Event{Name: "earth", X: 3, Y: 4, Tick: 1})
	rec.Finish(1, nil, nil)

	var buf bytes.Buffer
	if err := st.Export(&buf, rec.ID()); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != rec.ID() || data.Run.Dt != 60000 {
		t.Errorf("unexpected run %+v", data.Run)
	}
	if pts := data.Trajectories["earth"]; len(pts) != 1 || pts[0].X != 3 {
		t.Errorf("unexpected trajectory %v", pts)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportFile(path, rec.ID()); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected exported file, got %v", err)
	}
}
