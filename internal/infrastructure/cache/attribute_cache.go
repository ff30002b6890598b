package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

const defaultAttributeKeyPrefix = "stoflow:vinted:attributes:"

// RedisAttributeCache implements mapping.AttributeCache on Redis so an
// invalidation after a reference import reaches every instance.
// Redis failures are logged and treated as cache misses.
type RedisAttributeCache struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisAttributeCache creates an attribute cache on an existing client
func NewRedisAttributeCache(client *redis.Client, logger *zap.Logger) *RedisAttributeCache {
	return &RedisAttributeCache{
		client:    client,
		keyPrefix: defaultAttributeKeyPrefix,
		logger:    logger,
	}
}

func (c *RedisAttributeCache) key(kind vinted.AttributeKind) string {
	return c.keyPrefix + string(kind)
}

func (c *RedisAttributeCache) Get(ctx context.Context, kind vinted.AttributeKind) ([]vinted.Attribute, bool) {
	data, err := c.client.Get(ctx, c.key(kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Attribute cache read failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, false
	}
	var attrs []vinted.Attribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		c.logger.Warn("Dropping corrupt attribute cache entry", zap.String("kind", string(kind)), zap.Error(err))
		_ = c.client.Del(ctx, c.key(kind)).Err()
		return nil, false
	}
	return attrs, true
}

func (c *RedisAttributeCache) Set(ctx context.Context, kind vinted.AttributeKind, attrs []vinted.Attribute, ttl time.Duration) {
	data, err := json.Marshal(attrs)
	if err != nil {
		c.logger.Warn("Attribute cache encode failed", zap.String("kind", string(kind)), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.key(kind), data, ttl).Err(); err != nil {
		c.logger.Warn("Attribute cache write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// Invalidate drops the given kinds, or every kind when none is given
func (c *RedisAttributeCache) Invalidate(ctx context.Context, kinds ...vinted.AttributeKind) {
	if len(kinds) == 0 {
		kinds = vinted.AllAttributeKinds()
	}
	keys := make([]string, 0, len(kinds))
	for _, k := range kinds {
		keys = append(keys, c.key(k))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Attribute cache invalidation failed", zap.Error(err))
	}
}

var _ mapping.AttributeCache = (*RedisAttributeCache)(nil)
