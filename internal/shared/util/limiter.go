package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RequestLimiter is a token bucket sized in requests per minute, matching
// the server.rate_limit configuration block.
type RequestLimiter struct {
	inner *rate.Limiter
}

func NewRequestLimiter(requestsPerMinute, burst int) *RequestLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RequestLimiter{
		inner: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
	}
}

// Allow reports whether one request may proceed now.
func (l *RequestLimiter) Allow() bool {
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until a request slot is available.
func (l *RequestLimiter) Wait(ctx context.Context) error {
	return l.inner.Wait(ctx)
}
