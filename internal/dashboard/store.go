package dashboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/kavita/internal/results"
)

// Snapshot is the latest result list available to the UI.
type Snapshot struct {
	Records             []results.Record
	HasRecords          bool
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int
}

// IsOffline returns true when the server has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored records. When err is non-nil the previous
// records are kept and the error is recorded.
func (s *Store) Update(records []results.Record, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.Records = cloneRecords(records)
	s.snapshot.HasRecords = true
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Records = cloneRecords(s.snapshot.Records)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneRecords(records []results.Record) []results.Record {
	if len(records) == 0 {
		return nil
	}
	dup := make([]results.Record, len(records))
	copy(dup, records)
	return dup
}
