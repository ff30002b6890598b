package mapping

import (
	"context"
	"sync"
	"time"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

// AttributeCache stores Vinted reference lists per kind
type AttributeCache interface {
	Get(ctx context.Context, kind vinted.AttributeKind) ([]vinted.Attribute, bool)
	Set(ctx context.Context, kind vinted.AttributeKind, attrs []vinted.Attribute, ttl time.Duration)
	Invalidate(ctx context.Context, kinds ...vinted.AttributeKind)
}

type cacheEntry struct {
	attrs   []vinted.Attribute
	expires time.Time
}

// MemoryAttributeCache is a process-local AttributeCache
type MemoryAttributeCache struct {
	mu      sync.RWMutex
	entries map[vinted.AttributeKind]cacheEntry
	now     func() time.Time
}

// NewMemoryAttributeCache creates an empty cache
func NewMemoryAttributeCache() *MemoryAttributeCache {
	return &MemoryAttributeCache{
		entries: make(map[vinted.AttributeKind]cacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryAttributeCache) Get(_ context.Context, kind vinted.AttributeKind) ([]vinted.Attribute, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[kind]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.attrs, true
}

func (c *MemoryAttributeCache) Set(_ context.Context, kind vinted.AttributeKind, attrs []vinted.Attribute, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[kind] = cacheEntry{attrs: attrs, expires: c.now().Add(ttl)}
}

func (c *MemoryAttributeCache) Invalidate(_ context.Context, kinds ...vinted.AttributeKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(kinds) == 0 {
		c.entries = make(map[vinted.AttributeKind]cacheEntry)
		return
	}
	for _, k := range kinds {
		delete(c.entries, k)
	}
}
