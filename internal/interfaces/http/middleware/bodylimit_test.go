package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	newRouter := func(limit int64) *gin.Engine {
		router := gin.New()
		router.Use(BodyLimit(limit))
		handler := func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		}
		router.POST("/api/v1/acquisitions", handler)
		router.GET("/api/v1/acquisitions", handler)
		return router
	}

	tests := []struct {
		name          string
		limit         int64
		method        string
		body          string
		contentLength int64
		wantStatus    int
		wantCode      string
	}{
		{"within limit", 1024, http.MethodPost, `{"title":"pallet"}`, 18, http.StatusOK, ""},
		{"declared length over limit", 100, http.MethodPost, strings.Repeat("x", 200), 200, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge},
		{"streamed body over limit", 50, http.MethodPost, strings.Repeat("x", 100), -1, http.StatusBadRequest, ""},
		{"no body", 10, http.MethodGet, "", 0, http.StatusOK, ""},
		{"disabled", 0, http.MethodPost, strings.Repeat("x", 4096), 4096, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/acquisitions", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			newRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}
}
