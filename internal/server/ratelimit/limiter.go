// Package ratelimit counts requests per client key. RedisLimiter shares a
// fixed one-minute window across server instances; MemoryLimiter is a
// per-process token bucket used when no Redis is configured.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}
