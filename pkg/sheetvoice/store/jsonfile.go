package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// JSONStore keeps the full record mapping in memory and rewrites the
// backing JSON file wholesale on every mutation. A single mutex serializes
// the rewrite so concurrent mutations cannot interleave half-written files.
type JSONStore struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	records map[string]Record // keyed by FileName
}

// NewJSONStore creates a store backed by the JSON file at path.
// Call Load before use.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONStore{
		path:    path,
		logger:  logger.With("component", "store", "backend", BackendJSON),
		records: make(map[string]Record),
	}
}

// Load reads the mapping file if present. A missing file starts empty.
func (s *JSONStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug("no record file yet, starting empty", "path", s.path)
			return nil
		}
		return fmt.Errorf("reading record file: %w", err)
	}

	records := make(map[string]Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parsing record file %s: %w", s.path, err)
	}
	s.records = records
	s.logger.Debug("records loaded", "count", len(records))
	return nil
}

// Upsert inserts or replaces the record and rewrites the file.
func (s *JSONStore) Upsert(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.FileName] = rec
	return s.persist()
}

// Remove deletes the record keyed by fileName and rewrites the file.
func (s *JSONStore) Remove(fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, fileName)
	return s.persist()
}

// FindByScriptID scans all records for a matching script ID.
func (s *JSONStore) FindByScriptID(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ScriptID == id {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

// FindByClientName scans all records for a matching client name.
func (s *JSONStore) FindByClientName(name string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ClientName == name {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

// All returns every record ordered by file name.
func (s *JSONStore) All() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

// Close is a no-op for the JSON backend.
func (s *JSONStore) Close() error { return nil }

// persist rewrites the whole mapping file. Caller must hold mu.
func (s *JSONStore) persist() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating record directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling records: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing record file: %w", err)
	}
	return nil
}
