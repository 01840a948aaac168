package repository

import (
	"context"
	"time"
)

// RateLimiter admits at most limit events per key in each window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
