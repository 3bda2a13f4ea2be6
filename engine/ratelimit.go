package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumenlearn/engage/utils"
)

// Class names a route sensitivity category with its own rate budget.
type Class string

const (
	ClassPublic    Class = "public"
	ClassProtected Class = "protected"
)

// ClassConfig is the fixed-window budget for one sensitivity class.
type ClassConfig struct {
	Window time.Duration
	Max    int
}

// Decision is the structured admit/deny outcome. Denial is not an error.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter counts requests per (client key, class) in fixed windows
// aligned to the epoch. Counters live in Redis so every instance shares one
// budget; when Redis is unreachable it falls back to in-process counters.
type RateLimiter struct {
	classes map[Class]ClassConfig
	rdb     *redis.Client

	mu      sync.Mutex
	buckets map[string]*memBucket
}

type memBucket struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter builds a limiter over the given class table. rdb may be nil
// to run purely in process (tests, degraded mode).
func NewRateLimiter(classes map[Class]ClassConfig, rdb *redis.Client) *RateLimiter {
	return &RateLimiter{
		classes: classes,
		rdb:     rdb,
		buckets: map[string]*memBucket{},
	}
}

// Admit counts one request against the (key, class) bucket. Exactly Max
// requests are admitted per window; every further request in the same window
// is denied with the time until the window rolls over.
func (l *RateLimiter) Admit(ctx context.Context, key string, class Class, now time.Time) (Decision, error) {
	cc, ok := l.classes[class]
	if !ok {
		return Decision{}, fmt.Errorf("%w: unknown sensitivity class %q", ErrValidation, class)
	}

	windowMs := cc.Window.Milliseconds()
	windowIdx := now.UnixMilli() / windowMs
	windowEnd := (windowIdx + 1) * windowMs
	retryAfter := time.Duration(windowEnd-now.UnixMilli()) * time.Millisecond

	count, err := l.incr(ctx, key, class, windowIdx, cc.Window, now)
	if err != nil {
		return Decision{}, err
	}
	if count > int64(cc.Max) {
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return Decision{Allowed: true}, nil
}

func (l *RateLimiter) incr(ctx context.Context, key string, class Class, windowIdx int64, window time.Duration, now time.Time) (int64, error) {
	if l.rdb != nil {
		bucket := fmt.Sprintf("rl:%s:%s:%d", class, key, windowIdx)
		n, err := l.rdb.Incr(ctx, bucket).Result()
		if err == nil {
			if n == 1 {
				// keep the key one extra window so late stragglers still see it
				_ = l.rdb.PExpire(ctx, bucket, 2*window).Err()
			}
			return n, nil
		}
		if utils.Sugar != nil {
			utils.Sugar.Warnf("rate limiter redis incr failed, using in-process counter: %v", err)
		}
	}
	return l.incrLocal(key, class, window, now), nil
}

// incrLocal is the in-process fallback. Buckets are epoch aligned like the
// Redis keys; a clock that moves backward never resets an open window.
func (l *RateLimiter) incrLocal(key string, class Class, window time.Duration, now time.Time) int64 {
	bucket := fmt.Sprintf("%s:%s", class, key)
	windowMs := window.Milliseconds()
	windowStart := time.UnixMilli((now.UnixMilli() / windowMs) * windowMs)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.dropStaleBucketsLocked(now)

	b, ok := l.buckets[bucket]
	if !ok || windowStart.After(b.windowStart) {
		b = &memBucket{windowStart: windowStart}
		l.buckets[bucket] = b
	}
	b.count++
	return int64(b.count)
}

func (l *RateLimiter) dropStaleBucketsLocked(now time.Time) {
	if len(l.buckets) < 4096 {
		return
	}
	longest := time.Duration(0)
	for _, cc := range l.classes {
		if cc.Window > longest {
			longest = cc.Window
		}
	}
	cutoff := now.Add(-2 * longest)
	for k, b := range l.buckets {
		if b.windowStart.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}
