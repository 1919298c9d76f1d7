// internal/store/runlock.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned when another run already holds a population's lock.
var ErrLockHeld = errors.New("run lock already held")

// releaseScript deletes the lock only when the caller still owns it, so a
// run that outlives its TTL cannot release a lock some newer run acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RunLock serializes matching runs per population through Redis. The engine
// itself is re-entrant; the lock protects the result writes around it from
// interleaving.
type RunLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLock builds a lock manager. The TTL bounds how long a crashed run
// can block its population.
func NewRunLock(client *redis.Client, ttl time.Duration) *RunLock {
	return &RunLock{client: client, ttl: ttl}
}

func lockKey(populationID string) string {
	return "matching:lock:" + populationID
}

// Acquire claims the population's lock and returns an owner token for
// Release. ErrLockHeld means a concurrent run got there first.
func (l *RunLock) Acquire(ctx context.Context, populationID string) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey(populationID), token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire run lock for %s: %w", populationID, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Owner returns the token currently holding the population's lock, or empty
// when the lock is free.
func (l *RunLock) Owner(ctx context.Context, populationID string) (string, error) {
	owner, err := l.client.Get(ctx, lockKey(populationID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read run lock for %s: %w", populationID, err)
	}
	return owner, nil
}

// Release frees the lock if token still owns it. Releasing a lock that has
// expired or been taken over is a no-op, not an error.
func (l *RunLock) Release(ctx context.Context, populationID, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{lockKey(populationID)}, token).Err(); err != nil {
		return fmt.Errorf("release run lock for %s: %w", populationID, err)
	}
	return nil
}
