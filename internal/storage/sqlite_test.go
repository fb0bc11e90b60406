package storage

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/orrery/internal/body"
	"github.com/san-kum/orrery/internal/engine"
)

func report(tick uint64, moves ...body.Moved) *engine.TickReport {
	for i := range moves {
		moves[i].Tick = tick
	}
	return &engine.TickReport{Tick: tick, Moves: moves}
}

func TestSQLiteRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")

	db, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	db.OnTick(report(1,
		body.Moved{Name: "earth", Position: mgl64.Vec2{1, 2}, NetForce: 10},
		body.Moved{Name: "sun", Position: mgl64.Vec2{100, 0}, NetForce: 10},
	))
	db.OnTick(report(2,
		body.Moved{Name: "earth", Position: mgl64.Vec2{3, 4}},
		body.Moved{Name: "sun", Position: mgl64.Vec2{99, 0}},
	))
	if err := db.Err(); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	pts, err := db.Trajectory("earth")
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{Tick: 1, X: 1, Y: 2}, {Tick: 2, X: 3, Y: 4}}
	if len(pts) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(pts))
	}
	for i := range want {
		if pts[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], pts[i])
		}
	}

	frame, err := db.Frame(2)
	if err != nil {
		t.Fatal(err)
	}
	if frame["sun"].X != 99 {
		t.Errorf("expected sun at 99, got %v", frame["sun"])
	}

	last, err := db.LastTick()
	if err != nil || last != 2 {
		t.Errorf("expected last tick 2, got %d (%v)", last, err)
	}

	// a repeated tick violates the primary key and is rolled back whole
	db.OnTick(report(2, body.Moved{Name: "earth"}))
	if db.Err() == nil {
		t.Error("expected duplicate tick to fail")
	}

	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenSQLite(path, nil); err == nil {
		t.Error("expected error reopening an existing recording for writing")
	}

	ro, err := OpenSQLiteReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	pts, err = ro.Trajectory("sun")
	if err != nil || len(pts) != 2 {
		t.Errorf("expected 2 sun points, got %d (%v)", len(pts), err)
	}
	if err := ro.WriteTick(report(3)); err == nil {
		t.Error("expected read-only write to fail")
	}
}
