package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/matflow/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the store selected by http.idempotency_backend.
// A Redis store that cannot reach its server falls back to memory only when
// allowFallback is set.
func NewIdempotencyStore(backend string, redisCfg config.RedisConfig, allowFallback bool, logger *zap.Logger) (IdempotencyStore, error) {
	switch backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if !allowFallback {
				return nil, fmt.Errorf("redis required for idempotency keys but unavailable: %w", err)
			}
			logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
				"Retries reaching another instance will not be detected.",
				zap.Error(err),
			)
			return NewInMemoryIdempotencyStore(), nil
		}
		logger.Info("Using Redis idempotency store", zap.String("addr", redisCfg.Addr()))
		return NewRedisIdempotencyStore(client, ""), nil
	case config.BackendMemory, "":
		logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", backend)
	}
}
