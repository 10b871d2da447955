// Package ratelimit implements a fixed-window request limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "signup:ratelimit:"

// Limiter counts requests per key in fixed windows.
type Limiter struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
	now    func() time.Time
}

// New returns a Limiter allowing limit requests per key per window.
func New(client redis.Cmdable, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// Allow records one request for key and reports whether it fits in the
// current window.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.now().UnixNano() / int64(l.window)
	k := fmt.Sprintf("%s%s:%d", keyPrefix, key, bucket)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", k, err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", k, err)
		}
	}
	return n <= l.limit, nil
}
