// Package retry provides exponential backoff schedules. The operation poller
// uses them to space its fetches, and callers can wrap any request in [Do]
// to retry transient failures; the transport itself never retries.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds backoff parameters.
type Config struct {
	// MaxAttempts is the maximum number of attempts for [Do] (default: 5).
	// The initial request counts as attempt 1. Pollers ignore it.
	MaxAttempts int

	// InitialDelay is the delay before the first retry or re-poll.
	InitialDelay time.Duration

	// MaxDelay caps every delay.
	MaxDelay time.Duration

	// Multiplier is the exponential growth factor between delays.
	Multiplier float64

	// Jitter adds randomness to prevent thundering herd.
	// Delay is multiplied by (1 + random(-jitter, +jitter)).
	Jitter float64

	// Timeout bounds the total wall-clock time a poller may spend (0 = none).
	Timeout time.Duration
}

// DefaultConfig returns the configuration used by [Do] when callers retry
// transient API errors:
//   - 5 max attempts
//   - 1 second initial delay
//   - 60 second max delay
//   - 2x exponential multiplier
//   - 10% jitter
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// PollConfig returns the long-running-operation polling schedule: 1s growing
// by 1.5x up to 20s between fetches, giving up after 900s. No jitter.
func PollConfig() Config {
	return Config{
		InitialDelay: 1 * time.Second,
		MaxDelay:     20 * time.Second,
		Multiplier:   1.5,
		Timeout:      900 * time.Second,
	}
}

// Disabled returns a configuration that disables retries (single attempt).
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay calculates the delay for a given attempt number (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 + jitter)
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		jitterFactor := 1.0 + (rand.Float64()*2-1)*c.Jitter
		delay *= jitterFactor
	}

	return time.Duration(delay)
}
