package tts

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is the process-wide token bucket guarding TTS calls. It
// wraps golang.org/x/time/rate, whose continuous-refill token bucket
// already matches §4.1's contract exactly: tokens accrue proportionally to
// elapsed time, capped at capacity, and Acquire blocks until one is
// available.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter with the given bucket capacity and
// refill period. capacity also doubles as the maximum burst size, matching
// §4.1's description of a single shared bucket (not capacity-per-period
// plus a separate burst allowance).
func NewRateLimiter(capacity int, refillPeriod time.Duration) *RateLimiter {
	if capacity <= 0 {
		capacity = 9
	}
	if refillPeriod <= 0 {
		refillPeriod = 60 * time.Second
	}
	perSecond := rate.Limit(float64(capacity) / refillPeriod.Seconds())
	return &RateLimiter{limiter: rate.NewLimiter(perSecond, capacity)}
}

// Acquire blocks until a token is available or ctx is cancelled.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
