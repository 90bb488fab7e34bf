package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

const (
	// FileName is the state file kept in the config directory.
	FileName      = "iohat.json"
	debounceDelay = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *models.State
	written *models.State // last state this store put on disk
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, FileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the state from disk. Returns DefaultState on ENOENT or parse errors.
func (s *JSONStore) Load() (*models.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := models.DefaultState()
			return &def, nil
		}
		return nil, err
	}

	var state models.State
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("config: corrupt JSON config, using defaults", "path", s.path, "err", err)
		def := models.DefaultState()
		return &def, nil
	}

	normalizeState(&state)
	return &state, nil
}

// Save schedules a debounced write of the state to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(state *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *state
	s.pending = &cp

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		st := s.pending
		s.pending = nil
		s.mu.Unlock()
		if st != nil {
			if err := s.writeAtomic(st); err != nil {
				slog.Error("config: failed to write state", "path", s.path, "err", err)
			}
		}
	})
	return nil
}

// Flush forces an immediate write of any pending state.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	st := s.pending
	s.pending = nil
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	return s.writeAtomic(st)
}

func (s *JSONStore) writeAtomic(state *models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	cp := *state
	s.mu.Lock()
	s.written = &cp
	s.mu.Unlock()
	return os.Rename(tmpPath, s.path)
}

// ownWrite reports whether st is what this store last wrote, so the
// watcher can skip the echo of its own writes.
func (s *JSONStore) ownWrite(st models.State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written != nil && *s.written == st
}

var _ Store = (*JSONStore)(nil)
