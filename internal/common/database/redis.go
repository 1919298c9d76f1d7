// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"matching-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient owns the redis connection used for run locks and diagnostics
// caching. The store package works against the underlying *redis.Client.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis builds the client. Connection health is checked via Ping during
// startup, not here, so the worker manager's retry loop stays in control.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})
	return &RedisClient{Client: rdb}, nil
}

// Ping verifies the connection is live.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}

// GetClient exposes the underlying client for the store layer.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
