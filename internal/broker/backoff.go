package broker

import "time"

const (
	baseDelay = time.Second
	maxDelay  = 30 * time.Second
)

// Backoff returns the reconnect delay for the given attempt (starting at 1):
// min(1s × 2^(attempt−1), 30s).
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	// 2^5 s already exceeds the cap; clamp the shift to avoid overflow.
	if attempt > 6 {
		return maxDelay
	}
	d := baseDelay << (attempt - 1)
	if d > maxDelay {
		return maxDelay
	}
	return d
}
