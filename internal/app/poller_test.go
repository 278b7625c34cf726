package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/kavita/internal/dashboard"
	"github.com/five82/kavita/internal/results"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type stubFetcher struct {
	records []results.Record
	err     error
	calls   atomic.Int32
}

func (s *stubFetcher) FetchResults(ctx context.Context) ([]results.Record, error) {
	s.calls.Add(1)
	return s.records, s.err
}

func TestRefreshUpdatesStore(t *testing.T) {
	store := &dashboard.Store{}
	ok := &stubFetcher{records: []results.Record{{StudentName: "Asha", StudentRoll: "1", ChapterName: "Trees"}}}
	if err := refresh(context.Background(), store, ok); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := store.Snapshot()
	if !snap.HasRecords || len(snap.Records) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	failing := &stubFetcher{err: errors.New("connection refused")}
	for i := 0; i < 2; i++ {
		if err := refresh(context.Background(), store, failing); err == nil {
			t.Fatal("refresh error = nil, want failure")
		}
	}
	snap = store.Snapshot()
	if len(snap.Records) != 1 {
		t.Fatalf("records dropped on failure: %+v", snap.Records)
	}
	if !snap.IsOffline() {
		t.Fatalf("IsOffline() = false after %d failures", snap.ConsecutiveFailures)
	}
}

func TestStartPollerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &dashboard.Store{}
	fetcher := &stubFetcher{}
	StartPoller(ctx, store, fetcher, 10*time.Millisecond, nil)

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("poller made %d calls, want at least 2", fetcher.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	time.Sleep(30 * time.Millisecond)
	settled := fetcher.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := fetcher.calls.Load(); got != settled {
		t.Fatalf("poller kept running after cancel: %d -> %d calls", settled, got)
	}
}
