package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls how often and how patiently Do retries.
type Config struct {
	// MaxAttempts counts the first call. Values below 1 mean a single attempt.
	MaxAttempts int
	// BaseDelay scales the wait after attempt n as BaseDelay * n*n.
	BaseDelay time.Duration
	// OnRetry runs after a failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// Do calls fn until it succeeds, attempts run out, or ctx is done.
// It returns the last error from fn, or the context error wrapped with the
// attempt number when the wait was cut short.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= cfg.MaxAttempts {
			return err
		}
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(cfg.BaseDelay * time.Duration(attempt*attempt))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry: cancelled after attempt %d: %w", attempt, ctx.Err())
		}
	}
}
