package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping() error {
	return p.err
}

func serveHealth(t *testing.T, h *HealthHandler, path string) (int, map[string]any) {
	t.Helper()
	engine := gin.New()
	engine.GET("/health", h.Live)
	engine.GET("/health/ready", h.Ready)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler(t *testing.T) {
	t.Run("live ignores the database", func(t *testing.T) {
		code, body := serveHealth(t, NewHealthHandler(fakePinger{err: errors.New("down")}), "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("ready", func(t *testing.T) {
		code, body := serveHealth(t, NewHealthHandler(fakePinger{}), "/health/ready")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["database"])
	})

	t.Run("not ready", func(t *testing.T) {
		code, body := serveHealth(t, NewHealthHandler(fakePinger{err: errors.New("connection refused")}), "/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "error", body["database"])
	})
}
