// Package ratelimit throttles how fast sweep runs are dispatched.
package ratelimit

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter paces run dispatch in runs per second. A zero rate disables pacing.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(runsPerSec float64) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(runsPerSec), burst(runsPerSec)),
	}
}

func (r *RateLimiter) Wait(ctx context.Context) error {
	if r.limiter.Limit() == 0 {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// burst allows one second worth of runs, and at least one.
func burst(runsPerSec float64) int {
	return max(1, int(math.Ceil(runsPerSec)))
}
