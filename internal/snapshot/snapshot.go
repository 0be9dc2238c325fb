// Package snapshot persists the standardized source list of a completed run
// to disk. Snapshot writes are best effort: a failure is reported to the
// caller but must never fail the run that produced the data.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/godlockin/moontv-sync/internal/source"
)

// FileName is the snapshot file written under the data directory.
const FileName = "sources.json"

// Writer persists one run's standardized sources.
type Writer interface {
	Write(sources []source.StandardizedSource) error
}

// FileWriter writes snapshots under a data directory using a temp file and
// an atomic rename, so readers never observe a partially written snapshot.
type FileWriter struct {
	dir string
}

// NewFileWriter creates a writer rooted at dir. The directory is created on
// first write, not here.
func NewFileWriter(dir string) *FileWriter {
	return &FileWriter{dir: dir}
}

// Path returns the snapshot's final location.
func (w *FileWriter) Path() string {
	return filepath.Join(w.dir, FileName)
}

// Write replaces the snapshot with the given sources.
func (w *FileWriter) Write(sources []source.StandardizedSource) error {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(w.dir, FileName+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, w.Path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Read loads the current snapshot. A missing snapshot yields an empty list
// and no error.
func (w *FileWriter) Read() ([]source.StandardizedSource, error) {
	data, err := os.ReadFile(w.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var sources []source.StandardizedSource
	if err := json.Unmarshal(data, &sources); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return sources, nil
}
