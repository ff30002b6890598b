package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLimiter_PerUserBuckets(t *testing.T) {
	l := NewUserLimiter(0.001, 2)
	alice, bob := uuid.New(), uuid.New()

	assert.True(t, l.Allow(alice))
	assert.True(t, l.Allow(alice))
	assert.False(t, l.Allow(alice), "burst exhausted")

	assert.True(t, l.Allow(bob), "other users keep their own bucket")
	assert.Equal(t, 2, l.Len())
}

func TestUserLimiter_Unlimited(t *testing.T) {
	l := NewUserLimiter(0, 0)
	id := uuid.New()
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow(id))
	}
}

func TestUserLimiter_WaitHonoursContext(t *testing.T) {
	l := NewUserLimiter(0.001, 1)
	id := uuid.New()
	require.NoError(t, l.Wait(context.Background(), id))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, id))
}

func TestUserLimiter_EvictsIdleBuckets(t *testing.T) {
	l := NewUserLimiter(1, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.Allow(uuid.New())
	now = now.Add(idleEviction + time.Minute)
	l.Allow(uuid.New())

	assert.Equal(t, 1, l.Len())
}
