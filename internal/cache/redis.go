package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig contains options for creating a new RedisCache.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RedisCache is an implementation of the Cache interface using Redis.
type RedisCache struct {
	client *goredis.Client
	log    *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig, log *zap.Logger) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log = log.Named("redis")
	log.Info("Successfully connected to Redis", zap.String("addr", cfg.Address), zap.Int("db", cfg.DB))
	return &RedisCache{client: rdb, log: log}, nil
}

// Get retrieves a value from Redis.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		r.log.Error("Error getting key from Redis", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		r.log.Error("Error setting key in Redis", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a value from Redis.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.log.Error("Error deleting key from Redis", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
