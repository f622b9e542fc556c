package client

import (
	"context"

	"github.com/spetersoncode/gemkit/retry"
)

// RetryConfig holds backoff parameters.
type RetryConfig = retry.Config

// DefaultRetryConfig returns the default retry configuration.
//   - 5 max attempts
//   - 1 second initial delay
//   - 60 second max delay
//   - 2x exponential multiplier
//   - 10% jitter
func DefaultRetryConfig() RetryConfig {
	return retry.DefaultConfig()
}

// DisabledRetryConfig returns a configuration that disables retries (single attempt).
func DisabledRetryConfig() RetryConfig {
	return retry.Disabled()
}

// PollRetryConfig returns the default long-running operation schedule.
func PollRetryConfig() RetryConfig {
	return retry.PollConfig()
}

// IsTransientError determines if an error is transient and should be retried.
// It checks for rate limits, server errors, network timeouts, and connection issues.
func IsTransientError(err error) bool {
	return retry.IsTransient(err)
}

// WithRetry calls fn until it succeeds, fails permanently, or cfg runs out
// of attempts. The client never retries on its own.
//
//	resp, err := client.WithRetry(ctx, client.DefaultRetryConfig(), func() (*client.GenerateContentResponse, error) {
//	    return c.Models.GenerateContent(ctx, "gemini-2.0-flash", "Hello", nil)
//	})
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func() (T, error)) (T, error) {
	return retry.Do(ctx, cfg, fn)
}
