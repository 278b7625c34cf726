package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/kavita/internal/dashboard"
	"github.com/five82/kavita/internal/results"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
	fetchTimeout        = 5 * time.Second
)

// ResultsFetcher is the part of the api client the poller needs.
type ResultsFetcher interface {
	FetchResults(ctx context.Context) ([]results.Record, error)
}

// StartPoller launches a background goroutine that refreshes the dashboard
// store. Failed fetches back off exponentially up to maxBackoff. It returns
// immediately.
func StartPoller(ctx context.Context, store *dashboard.Store, client ResultsFetcher, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		failures := 0
		for {
			if err := refresh(ctx, store, client); err != nil {
				failures++
				logger.Warn("results poll failed", zap.Error(err), zap.Int("failures", failures))
			} else {
				if failures > 0 {
					logger.Info("results poll recovered", zap.Int("after_failures", failures))
				}
				failures = 0
			}

			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}()
}

func refresh(ctx context.Context, store *dashboard.Store, client ResultsFetcher) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	records, err := client.FetchResults(ctx)
	store.Update(records, err)
	return err
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
