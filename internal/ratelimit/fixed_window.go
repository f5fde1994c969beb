// Package ratelimit throttles upload traffic with a redis-backed
// fixed-window counter shared across API replicas.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

type RedisFixedWindow struct {
	client    redis.UniversalClient
	limit     int64
	window    time.Duration
	keyPrefix string
	now       func() time.Time
}

func NewRedisFixedWindow(client redis.UniversalClient, limit int, window time.Duration, keyPrefix string) (*RedisFixedWindow, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}
	if strings.TrimSpace(keyPrefix) == "" {
		keyPrefix = "imagevault:ratelimit"
	}

	return &RedisFixedWindow{
		client:    client,
		limit:     int64(limit),
		window:    window,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}, nil
}

// Allow counts one request against the subject's current window. The key
// carries the window index so stale windows expire on their own.
func (l *RedisFixedWindow) Allow(ctx context.Context, subject string) (Decision, error) {
	now := l.now()
	windowIndex := now.UnixNano() / int64(l.window)
	key := fmt.Sprintf("%s:%s:%d", l.keyPrefix, subject, windowIndex)

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 2*l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit window update: %w", err)
	}

	used := count.Val()
	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}

	if used > l.limit {
		windowEnd := time.Unix(0, (windowIndex+1)*int64(l.window))
		return Decision{Allowed: false, Remaining: 0, RetryAfter: windowEnd.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: remaining}, nil
}
