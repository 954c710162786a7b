package cache

import (
	"testing"

	"github.com/matflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewIdempotencyStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		store, err := NewIdempotencyStore(config.BackendMemory, config.RedisConfig{}, false, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewIdempotencyStore("memcached", config.RedisConfig{}, true, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("unreachable redis", func(t *testing.T) {
		unreachable := config.RedisConfig{Host: "127.0.0.1", Port: 1}

		_, err := NewIdempotencyStore(config.BackendRedis, unreachable, false, zap.NewNop())
		assert.Error(t, err)

		store, err := NewIdempotencyStore(config.BackendRedis, unreachable, true, zap.NewNop())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})
}
