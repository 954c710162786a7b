package lock

import (
	"fmt"

	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New builds the material locker selected by engine.lock_backend. The
// returned close function releases the backend's connections.
func New(engine config.EngineConfig, redisCfg config.RedisConfig, logger *zap.Logger) (txn.MaterialLocker, func() error, error) {
	switch engine.LockBackend {
	case config.BackendRedis:
		client, err := NewRedisClient(redisCfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using Redis material locks",
			zap.String("addr", redisCfg.Addr()),
			zap.Duration("ttl", engine.LockTTL),
		)
		return NewRedisLocker(client, engine.LockTTL, WithLogger(logger)), client.Close, nil
	case config.BackendMemory, "":
		logger.Info("Using in-process material locks")
		return NewMemoryLocker(), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown lock backend %q", engine.LockBackend)
	}
}
