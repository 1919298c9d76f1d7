// internal/store/runlock_test.go
package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLock(t *testing.T) (*RunLock, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunLock(client, 5*time.Minute), mr
}

func TestRunLock_AcquireAndRelease(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	token, err := lock.Acquire(ctx, "pop-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	owner, err := lock.Owner(ctx, "pop-1")
	require.NoError(t, err)
	assert.Equal(t, token, owner)

	require.NoError(t, lock.Release(ctx, "pop-1", token))

	owner, err = lock.Owner(ctx, "pop-1")
	require.NoError(t, err)
	assert.Empty(t, owner)

	// Free again, so a new run can claim it.
	_, err = lock.Acquire(ctx, "pop-1")
	assert.NoError(t, err)
}

func TestRunLock_Contention(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "pop-1")
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, "pop-1")
	assert.ErrorIs(t, err, ErrLockHeld)

	// A different population is unaffected.
	_, err = lock.Acquire(ctx, "pop-2")
	assert.NoError(t, err)
}

func TestRunLock_ReleaseRequiresOwnership(t *testing.T) {
	lock, _ := setupLock(t)
	ctx := context.Background()

	token, err := lock.Acquire(ctx, "pop-1")
	require.NoError(t, err)

	// A stale token must not free a lock it no longer owns.
	require.NoError(t, lock.Release(ctx, "pop-1", "stale-token"))

	owner, err := lock.Owner(ctx, "pop-1")
	require.NoError(t, err)
	assert.Equal(t, token, owner)
}

func TestRunLock_ExpiresAfterTTL(t *testing.T) {
	lock, mr := setupLock(t)
	ctx := context.Background()

	_, err := lock.Acquire(ctx, "pop-1")
	require.NoError(t, err)

	mr.FastForward(6 * time.Minute)

	_, err = lock.Acquire(ctx, "pop-1")
	assert.NoError(t, err)
}
