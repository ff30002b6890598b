// Package ratelimit provides per-user token buckets for outbound marketplace calls.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// idleEviction drops buckets of users that have not called for this long
const idleEviction = 30 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// UserLimiter keeps one token bucket per user.
//
// Thread Safety: Safe for concurrent use.
type UserLimiter struct {
	mu      sync.Mutex
	buckets map[uuid.UUID]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// NewUserLimiter creates a limiter allowing qps calls per second per user.
// qps <= 0 disables limiting.
func NewUserLimiter(qps float64, burst int) *UserLimiter {
	limit := rate.Limit(qps)
	if qps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &UserLimiter{
		buckets: make(map[uuid.UUID]*bucket),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// Wait blocks until userID may issue a call or ctx is done
func (l *UserLimiter) Wait(ctx context.Context, userID uuid.UUID) error {
	return l.get(userID).Wait(ctx)
}

// Allow reports whether userID may call now without waiting
func (l *UserLimiter) Allow(userID uuid.UUID) bool {
	return l.get(userID).Allow()
}

func (l *UserLimiter) get(userID uuid.UUID) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[userID]
	if !ok {
		l.evictIdle(now)
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[userID] = b
	}
	b.lastUsed = now
	return b.limiter
}

func (l *UserLimiter) evictIdle(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastUsed) > idleEviction {
			delete(l.buckets, id)
		}
	}
}

// Len returns the number of tracked users
func (l *UserLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
