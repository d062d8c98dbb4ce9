// Package retry provides a bounded retry loop with configurable backoff,
// replacing the ad hoc delay-then-repeat blocks around flaky upstream fetches.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Config controls a bounded retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff returns the delay after failed attempt n (1-based). Nil means
	// no delay between attempts.
	Backoff func(attempt int) time.Duration
	// PerAttemptTimeout bounds each individual attempt. Zero means the
	// attempt runs until the parent context is done.
	PerAttemptTimeout time.Duration
	// Abort stops retrying when it returns true for the attempt's error.
	Abort func(error) bool
}

// LinearBackoff returns a backoff function growing linearly: step, 2*step, ...
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return step * time.Duration(attempt)
	}
}

// FixedBackoff returns a constant backoff function.
func FixedBackoff(delay time.Duration) func(int) time.Duration {
	return func(int) time.Duration {
		return delay
	}
}

// Do runs op until it succeeds, the attempts are exhausted, the abort
// predicate matches, or the parent context is cancelled.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx := ctx
		var cancel context.CancelFunc
		if cfg.PerAttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, cfg.PerAttemptTimeout)
		}

		lastErr = op(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if lastErr == nil {
			return nil
		}

		if cfg.Abort != nil && cfg.Abort(lastErr) {
			return lastErr
		}

		if attempt == attempts {
			break
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff(attempt)
		}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
