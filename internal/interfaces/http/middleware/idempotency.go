package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries a client-chosen key for a POST request
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// IdempotencyStore claims keys atomically for a limited time
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// IdempotencyConfig configures the Idempotency middleware
type IdempotencyConfig struct {
	Store  IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency rejects a POST whose Idempotency-Key was already used by the
// same actor on the same path, so a retried receipt or credit is not posted
// to the ledger twice. Requests without the header pass through. A claim is
// released when the request fails with a 4xx or 5xx so the client can retry.
// The store is consulted before the handler runs; when it errors the request
// proceeds unprotected.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if c.Request.Method != http.MethodPost || raw == "" {
			c.Next()
			return
		}
		if len(raw) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeBadRequest,
				"Idempotency-Key must be at most 128 characters")
			return
		}

		key := GetJWTUserID(c) + ":" + c.Request.URL.Path + ":" + raw
		ctx := c.Request.Context()
		claimed, err := cfg.Store.MarkProcessed(ctx, key, cfg.TTL)
		if err != nil {
			cfg.Logger.Warn("Idempotency store unavailable, processing request anyway",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, http.StatusConflict, dto.ErrCodeDuplicateRequest,
				"A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := cfg.Store.Release(context.WithoutCancel(ctx), key); err != nil {
				cfg.Logger.Warn("Failed to release idempotency key",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			}
		}
	}
}
