package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/matflow/backend/internal/infrastructure/cache"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (failingStore) Release(context.Context, string) error {
	return nil
}

// idempotencyRouter counts handler runs; /fail always answers 422
func idempotencyRouter(store IdempotencyStore) (*gin.Engine, *int) {
	calls := 0
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if actor := c.GetHeader(UserIDHeader); actor != "" {
			c.Set(JWTUserIDKey, actor)
		}
		c.Next()
	})
	router.Use(Idempotency(IdempotencyConfig{Store: store, TTL: time.Hour}))
	router.POST("/credit", func(c *gin.Context) {
		calls++
		c.String(http.StatusCreated, "ok")
	})
	router.POST("/fail", func(c *gin.Context) {
		calls++
		c.String(http.StatusUnprocessableEntity, "no")
	})
	router.GET("/credit", func(c *gin.Context) {
		calls++
		c.String(http.StatusOK, "ok")
	})
	return router, &calls
}

func send(router *gin.Engine, method, path, key, actor string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if actor != "" {
		req.Header.Set(UserIDHeader, actor)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("repeated key is rejected", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router, calls := idempotencyRouter(store)

		assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/credit", "k-1", "alice").Code)
		w := send(router, http.MethodPost, "/credit", "k-1", "alice")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeDuplicateRequest)
		assert.Equal(t, 1, *calls)
	})

	t.Run("keys are scoped by actor and path", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router, calls := idempotencyRouter(store)

		assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/credit", "k-1", "alice").Code)
		assert.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/credit", "k-1", "bob").Code)
		assert.Equal(t, http.StatusUnprocessableEntity, send(router, http.MethodPost, "/fail", "k-1", "alice").Code)
		assert.Equal(t, 3, *calls)
	})

	t.Run("failed requests release the key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router, calls := idempotencyRouter(store)

		assert.Equal(t, http.StatusUnprocessableEntity, send(router, http.MethodPost, "/fail", "k-2", "alice").Code)
		assert.Equal(t, http.StatusUnprocessableEntity, send(router, http.MethodPost, "/fail", "k-2", "alice").Code)
		assert.Equal(t, 2, *calls)
		assert.Equal(t, 0, store.Size())
	})

	t.Run("requests without a key or not POST pass through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router, calls := idempotencyRouter(store)

		send(router, http.MethodPost, "/credit", "", "alice")
		send(router, http.MethodPost, "/credit", "", "alice")
		send(router, http.MethodGet, "/credit", "k-3", "alice")
		send(router, http.MethodGet, "/credit", "k-3", "alice")
		assert.Equal(t, 4, *calls)
		assert.Equal(t, 0, store.Size())
	})

	t.Run("oversized key", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router, calls := idempotencyRouter(store)

		w := send(router, http.MethodPost, "/credit", strings.Repeat("k", 129), "alice")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, 0, *calls)
	})

	t.Run("store errors do not block requests", func(t *testing.T) {
		router, calls := idempotencyRouter(failingStore{})

		require.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/credit", "k-4", "alice").Code)
		require.Equal(t, http.StatusCreated, send(router, http.MethodPost, "/credit", "k-4", "alice").Code)
		assert.Equal(t, 2, *calls)
	})
}
