// Package queue implements the durable offline queue of scan records that
// have not yet been accepted by the tracking service.
//
// The queue is a JSON array on disk. Every load-mutate-save cycle runs
// under one mutex, but the network portion of a drain runs outside it so
// appends are never blocked by in-flight requests. An unparseable queue
// file is deleted and treated as empty.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ostap/trackbox/internal/api"
)

// Submitter is the slice of the API client a drain needs.
type Submitter interface {
	SubmitRecord(ctx context.Context, token string, record api.ScanRecord) (*api.SubmitReply, error)
}

// Store owns the on-disk queue file.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open returns a store for the queue file at path. The file is created
// lazily on first append.
func Open(path string) *Store {
	return &Store{path: path}
}

// Append durably adds a record to the end of the queue. Records are not
// deduplicated; submitting the same scan twice queues it twice.
func (s *Store) Append(record api.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.load()
	pending = append(pending, record)
	return s.save(pending)
}

// Pending returns a snapshot of the queued records in FIFO order.
func (s *Store) Pending() []api.ScanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Len returns the number of queued records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.load())
}

// Drain attempts to submit every queued record in order. A transport
// failure ends the pass immediately so relative order is preserved for
// the next attempt; a server rejection leaves the record queued but does
// not stop later ones. Records the server confirmed are removed from the
// durable queue by structural equality. Returns how many were synced.
func (s *Store) Drain(ctx context.Context, token string, submitter Submitter) (int, error) {
	if token == "" {
		return 0, nil
	}

	s.mu.Lock()
	pending := s.load()
	s.mu.Unlock()
	if len(pending) == 0 {
		return 0, nil
	}

	var synced []api.ScanRecord
	for _, record := range pending {
		if _, err := submitter.SubmitRecord(ctx, token, record); err != nil {
			if api.IsTransport(err) {
				break
			}
			continue
		}
		synced = append(synced, record)
	}

	if len(synced) > 0 {
		s.mu.Lock()
		remaining := exclude(s.load(), synced)
		err := s.save(remaining)
		s.mu.Unlock()
		if err != nil {
			return len(synced), err
		}
	}
	return len(synced), nil
}

// exclude drops every record structurally equal to a confirmed one.
func exclude(records, confirmed []api.ScanRecord) []api.ScanRecord {
	remaining := make([]api.ScanRecord, 0, len(records))
	for _, record := range records {
		if containsRecord(confirmed, record) {
			continue
		}
		remaining = append(remaining, record)
	}
	return remaining
}

func containsRecord(records []api.ScanRecord, target api.ScanRecord) bool {
	for _, record := range records {
		if record == target {
			return true
		}
	}
	return false
}

func (s *Store) load() []api.ScanRecord {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var pending []api.ScanRecord
	if err := json.Unmarshal(raw, &pending); err != nil {
		_ = os.Remove(s.path)
		return nil
	}
	return pending
}

func (s *Store) save(pending []api.ScanRecord) error {
	if pending == nil {
		pending = []api.ScanRecord{}
	}
	raw, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create queue dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write queue: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace queue: %w", err)
	}
	return nil
}
