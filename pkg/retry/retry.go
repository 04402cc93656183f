// Package retry provides a generic bounded-retry combinator shared by the
// network-facing clients.
package retry

import (
	"context"
	"time"
)

// Config controls the retry loop.
type Config struct {
	// Attempts is the total number of tries, including the first one.
	Attempts int
	// Delay is the pause between consecutive attempts.
	Delay time.Duration
	// Timeout bounds each individual attempt. Zero means no per-attempt bound.
	Timeout time.Duration
}

// Do invokes fn up to cfg.Attempts times. A nil error stops the loop
// immediately, as does an error for which retryable returns false. The last
// error is returned when all attempts are exhausted. A nil retryable treats
// every error as transient.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error, retryable func(error) bool) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(cfg.Delay):
			}
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		}
		err := fn(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		lastErr = err

		if retryable != nil && !retryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}
