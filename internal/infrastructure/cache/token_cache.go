// Package cache holds the short-lived caches shared by the API and the job
// runners: marketplace access tokens and Vinted attribute reference lists.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores access tokens until shortly before they expire
type TokenCache interface {
	// Get returns ok=false on a miss
	Get(ctx context.Context, key string) (token string, ok bool, err error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

const defaultTokenKeyPrefix = "stoflow:token:"

// RedisTokenCache implements TokenCache on Redis, shared by every instance
type RedisTokenCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenCache creates a token cache on an existing client
func NewRedisTokenCache(client *redis.Client, keyPrefix string) *RedisTokenCache {
	if keyPrefix == "" {
		keyPrefix = defaultTokenKeyPrefix
	}
	return &RedisTokenCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisTokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached token: %w", err)
	}
	return token, true, nil
}

func (c *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

func (c *RedisTokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to evict token: %w", err)
	}
	return nil
}

var _ TokenCache = (*RedisTokenCache)(nil)

// ---------------------------------------------------------------------------
// In-memory
// ---------------------------------------------------------------------------

type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryTokenCache implements TokenCache in process memory.
// Each instance refreshes its own tokens.
type InMemoryTokenCache struct {
	mu      sync.RWMutex
	entries map[string]tokenEntry
	now     func() time.Time
}

// NewInMemoryTokenCache creates an empty cache
func NewInMemoryTokenCache() *InMemoryTokenCache {
	return &InMemoryTokenCache{
		entries: make(map[string]tokenEntry),
		now:     time.Now,
	}
}

func (c *InMemoryTokenCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expiresAt) {
		return "", false, nil
	}
	return e.token, true, nil
}

func (c *InMemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	// drop expired entries on write; tokens are few
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = tokenEntry{token: token, expiresAt: now.Add(ttl)}
	return nil
}

func (c *InMemoryTokenCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Size returns the number of entries, expired ones included
func (c *InMemoryTokenCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ TokenCache = (*InMemoryTokenCache)(nil)
