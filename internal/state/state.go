// Package state persists the operator's credential and identity between
// runs. The durable record is a small JSON file; a file that cannot be
// parsed is deleted and replaced with defaults so corruption never bricks
// the client.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// State is the durable credential/identity record. Unknown fields in the
// persisted form are ignored on load.
type State struct {
	Token       string `json:"token"`
	AccessLevel *int   `json:"access_level"`
	UserName    string `json:"user_name"`
	UserRole    string `json:"user_role"`
}

// Defaults returns the record used when nothing is persisted yet.
func Defaults() State {
	return State{UserRole: "viewer"}
}

// LoggedIn reports whether a credential is held.
func (s State) LoggedIn() bool {
	return s.Token != ""
}

// Store owns the on-disk state record. All load-mutate-save cycles are
// serialized by a single mutex.
type Store struct {
	mu   sync.Mutex
	path string
	cur  State
}

// Open loads the record at path, self-healing on corruption, and returns
// a store holding the resulting snapshot.
func Open(path string) *Store {
	s := &Store{path: path}
	s.cur = s.load()
	return s
}

// Get returns the current in-memory snapshot.
func (s *Store) Get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Put replaces the snapshot and persists it.
func (s *Store) Put(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = next
	return s.save()
}

// Update applies fn to a copy of the snapshot, then persists the result.
func (s *Store) Update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cur
	fn(&next)
	s.cur = next
	return s.save()
}

func (s *Store) load() State {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return Defaults()
	}
	cur := Defaults()
	if err := json.Unmarshal(raw, &cur); err != nil {
		// Corrupt record: reset rather than surface the parse error.
		_ = os.Remove(s.path)
		return Defaults()
	}
	return cur
}

// save writes the snapshot through a temp file so a crash mid-write never
// leaves a half-written record behind.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.cur, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
