// Package ratelimit provides the per-visitor token-bucket limiter for the
// public submit endpoint and the windowed duplicate-submission tracker.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// SubmitLimiter rate-limits form submissions per remote address using
// token buckets, bounding the damage of scripted re-posts before any
// storage work happens.
type SubmitLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	perSecond rate.Limit
	burst     int
}

// NewSubmitLimiter creates a limiter allowing perSecond sustained requests
// with the given burst per address.
func NewSubmitLimiter(perSecond float64, burst int) *SubmitLimiter {
	return &SubmitLimiter{
		limiters:  make(map[string]*rate.Limiter),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
	}
}

// Allow reports whether the named address may submit right now.
func (l *SubmitLimiter) Allow(addr string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[addr]
	if !ok {
		lim = rate.NewLimiter(l.perSecond, l.burst)
		l.limiters[addr] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
