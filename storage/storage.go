package storage

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tokenplane/model"
)

// Store provides persistent storage for export runs. Each run is kept as
// a JSON record plus the rendered stylesheet next to it, organized by
// date.
type Store struct {
	baseDir string
	mu      sync.Mutex
}

// New creates a new Store instance with the given base directory.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// EnsureDirs creates the necessary directory structure for storing runs.
func (s *Store) EnsureDirs() error {
	return os.MkdirAll(filepath.Join(s.baseDir, "exports"), 0o755)
}

// SaveExport saves an export record to disk, organizing files by date.
// The stylesheet is additionally written as a sibling .css file so it
// can be served or copied directly.
func (s *Store) SaveExport(rec *model.ExportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec == nil {
		return fmt.Errorf("nil record")
	}
	t := rec.Timestamp.UTC()
	dir := filepath.Join(
		s.baseDir,
		"exports",
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	stamp := t.Format("2006-01-02T15-04-05Z07-00")
	path := filepath.Join(dir, stamp+".json")

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, stamp+".css"), []byte(rec.CSS), 0o644)
}

// ListExports retrieves all export records within the specified time
// range, sorted by timestamp in ascending order.
func (s *Store) ListExports(from, to time.Time) ([]model.ExportRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from = from.UTC()
	to = to.UTC()

	base := filepath.Join(s.baseDir, "exports")
	var records []model.ExportRecord

	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		var r model.ExportRecord
		if err := json.NewDecoder(f).Decode(&r); err != nil {
			return err
		}
		if r.Timestamp.IsZero() {
			return nil
		}

		t := r.Timestamp.UTC()
		if t.Before(from) || t.After(to) {
			return nil
		}

		records = append(records, r)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	return records, nil
}

// Latest returns the most recent export record, nil if none exist.
func (s *Store) Latest() (*model.ExportRecord, error) {
	records, err := s.ListExports(time.Time{}, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[len(records)-1]
	return &rec, nil
}
