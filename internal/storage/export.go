package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run          RunMetadata        `json:"run"`
	Trajectories map[string][]Point `json:"trajectories"`
}

// Export writes a run and its trajectories as indented JSON.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := s.LoadTrajectories(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: *meta, Trajectories: tracks})
}

// ExportFile writes to path, or to stdout when path is "" or "-".
func (s *Store) ExportFile(path, runID string) error {
	if path == "" || path == "-" {
		return s.Export(os.Stdout, runID)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.Export(file, runID)
}
