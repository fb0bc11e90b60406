package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/san-kum/orrery/internal/publish"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
)

const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Dt        float64            `json:"dt"`
	Ticks     uint64             `json:"ticks"`
	Bodies    []string           `json:"bodies"`
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Point is one recorded position of a body.
type Point struct {
	Tick uint64  `json:"tick"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Create starts a new run directory and returns a Recorder writing into
// it. The run is listed as running until Finish is called.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d", name, time.Now().UnixNano())
	meta.Timestamp = time.Now()
	meta.Status = StatusRunning

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}
	if err := writeMetadata(runDir, &meta); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(runDir, positionsFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"tick", "name", "x", "y"}); err != nil {
		f.Close()
		return nil, err
	}

	return &Recorder{dir: runDir, meta: meta, file: f, w: w}, nil
}

func writeMetadata(runDir string, meta *RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// Recorder appends every published event to a run's positions.csv. It is
// safe for concurrent use by body actors.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	meta   RunMetadata
	file   *os.File
	w      *csv.Writer
	rows   int
	closed bool
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) Publish(ev publish.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("storage: recorder %s is closed", r.meta.ID)
	}
	err := r.w.Write([]string{
		strconv.FormatUint(ev.Tick, 10),
		ev.Name,
		strconv.FormatFloat(ev.X, 'g', -1, 64),
		strconv.FormatFloat(ev.Y, 'g', -1, 64),
	})
	if err != nil {
		return err
	}
	r.rows++
	return nil
}

func (r *Recorder) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Finish flushes the positions, closes the run and records its outcome.
// A nil runErr marks the run complete.
func (r *Recorder) Finish(ticks uint64, metrics map[string]float64, runErr error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	r.w.Flush()
	flushErr := r.w.Error()
	closeErr := r.file.Close()

	r.meta.Ticks = ticks
	r.meta.Metrics = metrics
	r.meta.Status = StatusComplete
	if runErr != nil {
		r.meta.Status = StatusFailed
		r.meta.Error = runErr.Error()
	}
	return errors.Join(flushErr, closeErr, writeMetadata(r.dir, &r.meta))
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectories reads every recorded position of a run, grouped by
// body name and ordered by tick. Malformed rows are skipped.
func (s *Store) LoadTrajectories(runID string) (map[string][]Point, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	tracks := make(map[string][]Point)
	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) != 4 {
			continue
		}

		tick, err := strconv.ParseUint(record[0], 10, 64)
		if err != nil {
			continue
		}
		x, errX := strconv.ParseFloat(record[2], 64)
		y, errY := strconv.ParseFloat(record[3], 64)
		if errX != nil || errY != nil {
			continue
		}
		tracks[record[1]] = append(tracks[record[1]], Point{Tick: tick, X: x, Y: y})
	}

	for _, pts := range tracks {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Tick < pts[j].Tick })
	}
	return tracks, nil
}

func (s *Store) LoadTrajectory(runID, name string) ([]Point, error) {
	tracks, err := s.LoadTrajectories(runID)
	if err != nil {
		return nil, err
	}
	pts, ok := tracks[name]
	if !ok {
		return nil, fmt.Errorf("storage: run %s has no body %q", runID, name)
	}
	return pts, nil
}
