package cancellation

import "time"

const (
	// DefaultBaseDelay is the delay before the first retry.
	DefaultBaseDelay = 5 * time.Minute
	// DefaultMaxDelay caps the exponential growth.
	DefaultMaxDelay = 24 * time.Hour
)

// BackoffDelay returns the wait before the next retry after the given number
// of attempts: base * 2^(attempts-1), capped at max. Delays are therefore
// non-decreasing across consecutive failures of the same request.
func BackoffDelay(attempts int, base, max time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = DefaultBaseDelay
	}
	if max <= 0 {
		max = DefaultMaxDelay
	}

	delay := base
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
