// Package ratelimit holds the in-process limiter used when no Redis is configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"wifi-voucher/internal/domain/ports/repository"

	"golang.org/x/time/rate"
)

var _ repository.RateLimiter = (*Local)(nil)

// Local keeps one token bucket per key. A bucket refills limit tokens per
// window and holds at most limit.
type Local struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewLocal() *Local {
	return &Local{limiters: make(map[string]*rate.Limiter)}
}

func (l *Local) limiter(key string, limit int, window time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	every := rate.Every(window / time.Duration(limit))
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(every, limit)
		l.limiters[key] = lim
	} else {
		lim.SetLimit(every)
		lim.SetBurst(limit)
	}
	return lim
}

func (l *Local) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	return l.limiter(key, limit, window).Allow(), nil
}
