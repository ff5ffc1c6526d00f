package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// SendLimiter is a token bucket capping calls to the email provider.
// Burst is set equal to the rate so no extra burst capacity accumulates
// beyond the configured per-second maximum.
type SendLimiter struct {
	limiter *rate.Limiter
}

// New creates a SendLimiter granting ratePerSec provider calls per second.
func New(ratePerSec int) *SendLimiter {
	return &SendLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)}
}

// Wait blocks until a token is granted. Called immediately before each
// provider send. Returns a non-nil error only if ctx is cancelled while
// waiting.
func (l *SendLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
