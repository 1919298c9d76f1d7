// internal/store/diagcache.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"matching-workers/internal/models"
)

// DiagnosticsCache keeps the latest run diagnostics per population in Redis
// so review tooling can read them without touching Postgres.
type DiagnosticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDiagnosticsCache builds a cache with the given retention.
func NewDiagnosticsCache(client *redis.Client, ttl time.Duration) *DiagnosticsCache {
	return &DiagnosticsCache{client: client, ttl: ttl}
}

func diagnosticsKey(populationID string) string {
	return "matching:diagnostics:" + populationID
}

// Store replaces the population's cached diagnostics.
func (c *DiagnosticsCache) Store(ctx context.Context, populationID string, diag models.RunDiagnostics) error {
	data, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics for %s: %w", populationID, err)
	}
	if err := c.client.Set(ctx, diagnosticsKey(populationID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache diagnostics for %s: %w", populationID, err)
	}
	return nil
}

// Latest returns the population's cached diagnostics. The second return is
// false when no run has been cached or the entry expired.
func (c *DiagnosticsCache) Latest(ctx context.Context, populationID string) (*models.RunDiagnostics, bool, error) {
	data, err := c.client.Get(ctx, diagnosticsKey(populationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached diagnostics for %s: %w", populationID, err)
	}

	var diag models.RunDiagnostics
	if err := json.Unmarshal(data, &diag); err != nil {
		return nil, false, fmt.Errorf("parse cached diagnostics for %s: %w", populationID, err)
	}
	return &diag, true, nil
}
