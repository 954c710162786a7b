package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claim(t *testing.T, store *InMemoryIdempotencyStore, key string, ttl time.Duration) bool {
	t.Helper()
	ok, err := store.MarkProcessed(context.Background(), key, ttl)
	require.NoError(t, err)
	return ok
}

func processed(t *testing.T, store *InMemoryIdempotencyStore, key string) bool {
	t.Helper()
	ok, err := store.IsProcessed(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestInMemoryIdempotencyStore_Claims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	t.Run("first claim wins", func(t *testing.T) {
		assert.True(t, claim(t, store, "actor:/api/v1/acquisitions/a1/receive:k1", time.Hour))
		assert.False(t, claim(t, store, "actor:/api/v1/acquisitions/a1/receive:k1", time.Hour))
		assert.True(t, processed(t, store, "actor:/api/v1/acquisitions/a1/receive:k1"))
	})

	t.Run("unknown key", func(t *testing.T) {
		assert.False(t, processed(t, store, "never-seen"))
	})

	t.Run("expired claim is reclaimable", func(t *testing.T) {
		assert.True(t, claim(t, store, "short", 10*time.Millisecond))
		time.Sleep(20 * time.Millisecond)

		assert.False(t, processed(t, store, "short"))
		assert.True(t, claim(t, store, "short", time.Hour))
	})

	t.Run("released claim is reclaimable", func(t *testing.T) {
		assert.True(t, claim(t, store, "failed-debit", time.Hour))
		require.NoError(t, store.Release(context.Background(), "failed-debit"))

		assert.False(t, processed(t, store, "failed-debit"))
		assert.True(t, claim(t, store, "failed-debit", time.Hour))
		assert.NoError(t, store.Release(context.Background(), "never-claimed"))
	})
}

func TestInMemoryIdempotencyStore_EvictsOldestWhenFull(t *testing.T) {
	store, err := NewBoundedIdempotencyStore(2)
	require.NoError(t, err)

	claim(t, store, "k1", time.Hour)
	claim(t, store, "k2", time.Hour)
	claim(t, store, "k3", time.Hour)

	assert.Equal(t, 2, store.Size())
	assert.False(t, processed(t, store, "k1"))
	assert.True(t, processed(t, store, "k3"))
}

func TestNewBoundedIdempotencyStore_RejectsZeroCapacity(t *testing.T) {
	_, err := NewBoundedIdempotencyStore(0)
	assert.Error(t, err)
}

func TestInMemoryIdempotencyStore_ConcurrentClaims(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	const workers = 100
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := store.MarkProcessed(context.Background(), "same-key", time.Hour); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	claim(t, store, "k", time.Hour)

	require.NoError(t, store.Close())
	assert.Zero(t, store.Size())
	assert.NoError(t, store.Close())
}
