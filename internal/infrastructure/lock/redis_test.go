package lock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newRedisClient starts a Redis container. Skipped under -short.
func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLocker(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()
	l := NewRedisLocker(client, 5*time.Second, WithKeyPrefix("test:lock:"), WithRetryDelay(5*time.Millisecond))
	a, b := uuid.New(), uuid.New()

	t.Run("acquire and release", func(t *testing.T) {
		release, err := l.Lock(ctx, []uuid.UUID{b, a})
		require.NoError(t, err)
		n, err := client.Exists(ctx, "test:lock:"+a.String(), "test:lock:"+b.String()).Result()
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		release()
		release()
		n, err = client.Exists(ctx, "test:lock:"+a.String(), "test:lock:"+b.String()).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("contended lock waits for release", func(t *testing.T) {
		release, err := l.Lock(ctx, []uuid.UUID{a})
		require.NoError(t, err)

		acquired := make(chan struct{})
		go func() {
			second, err := l.Lock(ctx, []uuid.UUID{a})
			if err == nil {
				second()
			}
			close(acquired)
		}()

		select {
		case <-acquired:
			t.Fatal("second holder acquired a held lock")
		case <-time.After(50 * time.Millisecond):
		}
		release()
		select {
		case <-acquired:
		case <-time.After(2 * time.Second):
			t.Fatal("second holder never acquired the lock")
		}
	})

	t.Run("timeout releases partial acquisitions", func(t *testing.T) {
		release, err := l.Lock(ctx, []uuid.UUID{b})
		require.NoError(t, err)
		defer release()

		timeout, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		_, err = l.Lock(timeout, []uuid.UUID{a, b})
		require.Error(t, err)

		exists, err := client.Exists(ctx, "test:lock:"+a.String()).Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("foreign token is not released", func(t *testing.T) {
		key := "test:lock:" + a.String()
		require.NoError(t, client.Set(ctx, key, "someone-else", time.Minute).Err())
		l.release([]string{key}, "my-token")
		val, err := client.Get(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, "someone-else", val)
		require.NoError(t, client.Del(ctx, key).Err())
	})
}
