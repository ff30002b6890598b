package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Factory creates the caches based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(config.RedisConfig) (*redis.Client, error)

	client *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory caches when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// WithRedisClient makes the factory use an existing client
func WithRedisClient(client *redis.Client) FactoryOption {
	return func(f *Factory) {
		f.client = client
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect:               NewRedisClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// redisClient connects lazily and reuses the client across caches
func (f *Factory) redisClient() (*redis.Client, error) {
	if f.client != nil {
		return f.client, nil
	}
	if !f.redisConfig.Enabled {
		return nil, fmt.Errorf("redis disabled")
	}
	client, err := f.connect(f.redisConfig)
	if err != nil {
		return nil, err
	}
	f.client = client
	return client, nil
}

// CreateTokenCache returns a Redis token cache, falling back to memory
func (f *Factory) CreateTokenCache() (TokenCache, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis token cache")
		return NewRedisTokenCache(client, ""), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for token cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory token cache. "+
		"Each instance will refresh marketplace tokens on its own.",
		zap.Error(err),
	)
	return NewInMemoryTokenCache(), nil
}

// CreateAttributeCache returns a Redis attribute cache, falling back to memory
func (f *Factory) CreateAttributeCache() (mapping.AttributeCache, error) {
	client, err := f.redisClient()
	if err == nil {
		f.logger.Info("using Redis attribute cache")
		return NewRedisAttributeCache(client, f.logger), nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for attribute cache but unavailable: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory attribute cache. "+
		"Reference imports will only invalidate this instance.",
		zap.Error(err),
	)
	return mapping.NewMemoryAttributeCache(), nil
}

// Close releases the Redis client, if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
