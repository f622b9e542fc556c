package retry

import (
	"context"
	"time"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/internal/clock"
)

// Do executes fn, retrying transient failures with backoff.
// A server-suggested Retry-After longer than the computed delay wins.
// It respects context cancellation during backoff waits.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return do(ctx, cfg, clock.Real(), fn)
}

func do[T any](ctx context.Context, cfg Config, clk clock.Clock, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < attempts-1 {
			delay := cfg.Delay(attempt)
			if ra := gemkit.RetryAfterOf(err); ra > delay {
				delay = ra
			}
			if err := Sleep(ctx, clk, delay); err != nil {
				return zero, err
			}
		}
	}

	return zero, lastErr
}

// Sleep waits for d on clk, returning early with the context's error if ctx
// is done first.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
