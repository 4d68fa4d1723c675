// Package ratelimiter paces outgoing requests with a token bucket.
package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests to a remote service.
//
// Tokens are added at a constant rate up to the burst size and each request
// takes one. A request arriving at an empty bucket waits for the next token
// instead of being rejected, so callers see latency rather than errors when
// they exceed the configured rate.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter.
//
// Special cases:
//   - requestsPerSecond = 0: no limiting
//   - burst = 0: the burst equals one second of requests
//
// Example:
//
//	// 100 req/s sustained, up to 200 at once
//	limiter := New(100, 200)
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = requestsPerSecond
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow takes a token if one is available without waiting.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done. delayed reports
// whether the caller had to wait, which is what throttling metrics count.
func (r *RateLimiter) Wait(ctx context.Context) (delayed bool, err error) {
	res := r.limiter.Reserve()
	if !res.OK() {
		return false, fmt.Errorf("ratelimiter: burst %d cannot serve a request", r.limiter.Burst())
	}
	d := res.Delay()
	if d == 0 {
		return false, nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true, nil
	case <-ctx.Done():
		res.Cancel()
		return true, ctx.Err()
	}
}

// Tokens returns the number of tokens currently in the bucket.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
