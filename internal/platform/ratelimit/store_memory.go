package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryLimiter keeps one sliding window of request timestamps per key.
// It is process-local; use RedisLimiter when several replicas share a budget.
type InMemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string][]time.Time
	swept   time.Time
}

// NewInMemory admits limit requests per key within window.
func NewInMemory(limit int, window time.Duration) *InMemoryLimiter {
	return &InMemoryLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		buckets: make(map[string][]time.Time),
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	stamps := evictBefore(l.buckets[key], now.Add(-l.window))

	if len(stamps) >= l.limit {
		l.buckets[key] = stamps
		resetAt := stamps[0].Add(l.window)
		return Result{
			Allowed:    false,
			Limit:      l.limit,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}

	stamps = append(stamps, now)
	l.buckets[key] = stamps
	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - len(stamps),
		ResetAt:   stamps[0].Add(l.window),
	}, nil
}

// Reset forgets the window for key.
func (l *InMemoryLimiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops keys whose whole window has expired, at most once per window,
// so clients that never come back do not hold memory. Caller holds l.mu.
func (l *InMemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.swept) < l.window {
		return
	}
	l.swept = now
	cutoff := now.Add(-l.window)
	for key, stamps := range l.buckets {
		if len(stamps) == 0 || !stamps[len(stamps)-1].After(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Len reports how many keys are tracked.
func (l *InMemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// evictBefore drops timestamps at or before cutoff. stamps is ordered.
func evictBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for ; i < len(stamps); i++ {
		if stamps[i].After(cutoff) {
			break
		}
	}
	return stamps[i:]
}
