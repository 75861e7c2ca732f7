// Package ratelimit provides an in-process domain.RateLimiter built on token
// buckets, one per key.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// Local is a per-key token bucket limiter.
type Local struct {
	perSecond float64
	burst     int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

var _ domain.RateLimiter = (*Local)(nil)

// NewLocal allows perSecond events per key with the given burst. A
// non-positive rate disables limiting.
func NewLocal(perSecond float64, burst int) *Local {
	if burst <= 0 {
		burst = 1
	}
	return &Local{
		perSecond: perSecond,
		burst:     burst,
		buckets:   make(map[string]*rate.Limiter),
	}
}

// Allow reports whether an event for key may happen now.
func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	return l.bucket(key).Allow(), nil
}

// Wait blocks until an event for key is permitted or ctx is done.
func (l *Local) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

func (l *Local) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b
	}
	limit := rate.Inf
	if l.perSecond > 0 {
		limit = rate.Limit(l.perSecond)
	}
	b := rate.NewLimiter(limit, l.burst)
	l.buckets[key] = b
	return b
}
