package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrUnavailable = errors.New("rate limiter unavailable")
)

// Limiter is a fixed-window counter on redis: INCR the key, set the window
// expiry on first hit, reject once the count exceeds the maximum.
type Limiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
}

func New(redisClient *redis.Client, max int, window time.Duration) *Limiter {
	return &Limiter{
		redis:  redisClient,
		max:    max,
		window: window,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, "rl:"+key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, "rl:"+key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(l.max) {
		return ErrRateLimited
	}
	return nil
}
