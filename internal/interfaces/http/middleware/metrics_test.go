package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newMetricsRouter(t *testing.T) (*gin.Engine, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	router := gin.New()
	router.Use(HTTPMetricsWithMeter(mp.Meter("http.server"), true))
	router.GET("/api/v1/materials/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/api/v1/production-plans/:id/start", func(c *gin.Context) {
		c.Set(ErrorCodeKey, dto.ErrCodeInsufficientStock)
		c.JSON(http.StatusUnprocessableEntity, gin.H{})
	})
	router.POST("/api/v1/materials/:id/debit", func(c *gin.Context) {
		abortWithError(c, http.StatusConflict, dto.ErrCodeDuplicateRequest, "replayed")
	})
	return router, reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumPoints(t *testing.T, m *metricdata.Metrics) []metricdata.DataPoint[int64] {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum data for %s", m.Name)
	return sum.DataPoints
}

func attrValue(dp metricdata.DataPoint[int64], key string) string {
	for _, kv := range dp.Attributes.ToSlice() {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestHTTPMetrics_PassThroughWhenDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  HTTPMetricsConfig
	}{
		{"disabled", HTTPMetricsConfig{Enabled: false}},
		{"no meter provider", HTTPMetricsConfig{Enabled: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(HTTPMetrics(tt.cfg))
			router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", nil).Code)
		})
	}
}

func TestHTTPMetrics_RequestsGroupedByRoute(t *testing.T) {
	router, reader := newMetricsRouter(t)

	for _, id := range []string{"a1", "b2", "c3"} {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/materials/"+id, nil).Code)
	}

	points := sumPoints(t, collectMetric(t, reader, "http_server_request_total"))
	require.Len(t, points, 1)
	assert.Equal(t, int64(3), points[0].Value)
	assert.Equal(t, "/api/v1/materials/:id", attrValue(points[0], "http.route"))
	assert.Equal(t, "2xx", attrValue(points[0], "http.status_class"))

	assert.NotNil(t, collectMetric(t, reader, "http_server_request_duration_seconds"))
	if rejected := collectMetric(t, reader, "http_server_rejected_total"); rejected != nil {
		assert.Empty(t, sumPoints(t, rejected))
	}
}

func TestHTTPMetrics_RejectionsByErrorCode(t *testing.T) {
	router, reader := newMetricsRouter(t)

	serve(router, http.MethodPost, "/api/v1/production-plans/p1/start", nil)
	serve(router, http.MethodPost, "/api/v1/production-plans/p2/start", nil)
	serve(router, http.MethodPost, "/api/v1/materials/m1/debit", nil)

	codes := map[string]int64{}
	for _, dp := range sumPoints(t, collectMetric(t, reader, "http_server_rejected_total")) {
		codes[attrValue(dp, "error.code")] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		dto.ErrCodeInsufficientStock: 2,
		dto.ErrCodeDuplicateRequest:  1,
	}, codes)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	router, reader := newMetricsRouter(t)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nowhere", nil).Code)

	points := sumPoints(t, collectMetric(t, reader, "http_server_request_total"))
	require.Len(t, points, 1)
	assert.Equal(t, "unknown", attrValue(points[0], "http.route"))
	assert.Equal(t, "4xx", attrValue(points[0], "http.status_class"))
}

func TestHTTPMetricsStatusGroup(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		201: "2xx",
		304: "3xx",
		409: "4xx",
		422: "4xx",
		503: "5xx",
		101: "other",
	}
	for status, want := range tests {
		assert.Equal(t, want, HTTPMetricsStatusGroup(status), "status %d", status)
	}
}
