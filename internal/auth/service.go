// Package auth guards the daemon's HTTP API with optional API keys kept in
// keys.json in the config directory.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// KeysFileName is the key file kept in the config directory. It maps a
// client name to its key: {"dashboard": "s3cret"}.
const KeysFileName = "keys.json"

// Service holds the current key set and reloads it when the file changes.
type Service struct {
	mu        sync.RWMutex
	configDir string
	keys      map[string]string
	watcher   *fsnotify.Watcher
}

// NewService creates a new auth service watching the given config directory.
// A missing key file leaves the API open.
func NewService(configDir string) (*Service, error) {
	s := &Service{
		configDir: configDir,
		keys:      make(map[string]string),
	}

	if err := s.Reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("auth: could not create fsnotify watcher", "err", err)
		return s, nil
	}
	s.watcher = watcher

	keysPath := s.keysPath()
	if err := watcher.Add(filepath.Dir(keysPath)); err != nil {
		slog.Warn("auth: could not watch config dir", "err", err)
	}

	go s.watchLoop(keysPath)
	return s, nil
}

func (s *Service) keysPath() string {
	return filepath.Join(s.configDir, KeysFileName)
}

// Reload re-reads the key file. A removed file reopens the API.
func (s *Service) Reload() error {
	data, err := os.ReadFile(s.keysPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.mu.Lock()
			s.keys = make(map[string]string)
			s.mu.Unlock()
			return nil
		}
		return err
	}

	var keys map[string]string
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()
	slog.Debug("auth: reloaded keys", "count", len(keys))
	return nil
}

// IsOpenMode returns true if no non-empty key is configured.
func (s *Service) IsOpenMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if k != "" {
			return false
		}
	}
	return true
}

// VerifyKey returns true if key matches any configured key.
// Uses constant-time comparison to prevent timing attacks.
func (s *Service) VerifyKey(key string) bool {
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(k)) == 1 {
			return true
		}
	}
	return false
}

// Close stops the file watcher.
func (s *Service) Close() {
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Service) watchLoop(keysPath string) {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Name != keysPath {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if err := s.Reload(); err != nil {
					slog.Warn("auth: failed to reload keys", "err", err)
				}
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("auth: watcher error", "err", err)
		}
	}
}
