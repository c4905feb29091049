// Package ratelimit bounds requests per client with a sliding window.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of one Allow call.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is whole seconds until a denied caller may retry.
	RetryAfter int
}

// Limiter admits or denies one request for key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
