package config

import (
	"errors"
	"sync"
)

// Store provides read-through access to the config file so that edits made
// by the management interface take effect without a restart.
//
// Load re-reads the file on every call and retains the last successfully
// parsed configuration; Snapshot returns that last-good copy when a fresh
// read fails mid-flight.
type Store struct {
	path string

	mu   sync.RWMutex
	last *Config
}

// NewStore resolves the config file location, performs an initial load, and
// returns a store bound to that file.
func NewStore() (*Store, error) {
	path, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	return NewStoreAt(path)
}

// NewStoreAt binds a store to an explicit config file path.
func NewStoreAt(path string) (*Store, error) {
	store := &Store{path: path}
	if _, err := store.Load(); err != nil {
		return nil, err
	}

	return store, nil
}

// Load re-reads the config file. On success the parsed configuration becomes
// the new snapshot; on failure the error is returned and the previous
// snapshot is left intact.
func (s *Store) Load() (*Config, error) {
	cfg, err := loadFromPath(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = cfg
	s.mu.Unlock()

	return cfg, nil
}

// Snapshot returns the last successfully loaded configuration.
func (s *Store) Snapshot() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.last == nil {
		return nil, errors.New("no configuration has been loaded")
	}

	return s.last, nil
}

// Current returns a fresh load when possible and falls back to the last
// snapshot when the file is temporarily unreadable (for example while the
// management interface rewrites it).
func (s *Store) Current() (*Config, error) {
	cfg, err := s.Load()
	if err == nil {
		return cfg, nil
	}

	if snapshot, snapErr := s.Snapshot(); snapErr == nil {
		return snapshot, nil
	}

	return nil, err
}

// Path returns the config file location the store reads from.
func (s *Store) Path() string {
	return s.path
}
