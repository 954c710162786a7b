package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubStockProvider struct {
	counts map[string]int64
	err    error
	calls  int
}

func (s *stubStockProvider) LowStockCountByKind(context.Context) (map[string]int64, error) {
	s.calls++
	return s.counts, s.err
}

func newTestFlowMetrics(t *testing.T, provider StockMetricsProvider) (*FlowMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	fm, err := NewFlowMetrics(FlowMetricsConfig{
		Meter:         mp.Meter("test"),
		Logger:        zap.NewNop(),
		StockProvider: provider,
	})
	require.NoError(t, err)
	return fm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewFlowMetrics_RequiresMeter(t *testing.T) {
	_, err := NewFlowMetrics(FlowMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)

	fm, err := NewFlowMetrics(FlowMetricsConfig{Meter: noop.NewMeterProvider().Meter("noop")})
	require.NoError(t, err)
	fm.RecordMovement(context.Background(), "DEBIT", "MANUAL_ADJUSTMENT", "RAW_MATERIAL", decimal.NewFromInt(1), true)
}

func TestFlowMetrics_RecordMovement(t *testing.T) {
	fm, reader := newTestFlowMetrics(t, nil)
	ctx := context.Background()

	fm.RecordMovement(ctx, "CREDIT", "ACQUISITION_RECEIPT", "RAW_MATERIAL", decimal.RequireFromString("12.5"), false)
	fm.RecordMovement(ctx, "CREDIT", "ACQUISITION_RECEIPT", "RAW_MATERIAL", decimal.RequireFromString("2.5"), false)
	fm.RecordMovement(ctx, "DEBIT", "PRODUCTION_CONSUMPTION", "RAW_MATERIAL", decimal.NewFromInt(14), true)

	data := collect(t, reader)

	movements, ok := data["matflow_stock_movements_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	byDirection := map[string]int64{}
	for _, dp := range movements.DataPoints {
		dir, _ := dp.Attributes.Value(AttrDirection)
		byDirection[dir.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"CREDIT": 2, "DEBIT": 1}, byDirection)

	quantity, ok := data["matflow_stock_moved_quantity"].(metricdata.Sum[float64])
	require.True(t, ok)
	credited := attribute.NewSet(
		AttrDirection.String("CREDIT"),
		AttrSourceType.String("ACQUISITION_RECEIPT"),
		AttrMaterialKind.String("RAW_MATERIAL"),
	)
	for _, dp := range quantity.DataPoints {
		if dp.Attributes.Equals(&credited) {
			assert.InDelta(t, 15.0, dp.Value, 1e-9)
		}
	}

	low, ok := data["matflow_low_stock_movements_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, low.DataPoints, 1)
	assert.Equal(t, int64(1), low.DataPoints[0].Value)
}

func TestFlowMetrics_DocumentCounters(t *testing.T) {
	fm, reader := newTestFlowMetrics(t, nil)
	ctx := context.Background()

	fm.RecordAcquisitionReceived(ctx, "RECYCLABLE_MATERIALS", "READY_FOR_PROCESSING")
	fm.RecordProcessingRun(ctx, 2)
	fm.RecordPlanCompleted(ctx, "FROM_RAW_MATERIALS")
	fm.RecordPlanCompleted(ctx, "FROM_RAW_MATERIALS")

	data := collect(t, reader)
	for name, want := range map[string]int64{
		"matflow_acquisitions_received_total": 1,
		"matflow_processing_runs_total":       1,
		"matflow_plan_completions_total":      2,
	} {
		sum, ok := data[name].(metricdata.Sum[int64])
		require.True(t, ok, name)
		require.Len(t, sum.DataPoints, 1, name)
		assert.Equal(t, want, sum.DataPoints[0].Value, name)
	}
}

func TestFlowMetrics_PeriodicCollection(t *testing.T) {
	provider := &stubStockProvider{counts: map[string]int64{"RAW_MATERIAL": 3, "RECYCLABLE_MATERIAL": 1}}
	fm, reader := newTestFlowMetrics(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fm.StartPeriodicCollection(ctx, time.Hour)
	defer fm.Stop()

	assert.Eventually(t, func() bool {
		gauge, ok := collect(t, reader)["matflow_low_stock_materials"].(metricdata.Gauge[int64])
		return ok && len(gauge.DataPoints) == 2
	}, 2*time.Second, 10*time.Millisecond)

	fm.Stop()
	fm.Stop()
}

func TestFlowMetrics_ProviderErrorIsLogged(t *testing.T) {
	provider := &stubStockProvider{err: errors.New("db unavailable")}
	fm, reader := newTestFlowMetrics(t, provider)

	fm.collectStockMetrics(context.Background())
	assert.Equal(t, 1, provider.calls)
	_, ok := collect(t, reader)["matflow_low_stock_materials"]
	assert.False(t, ok)
}
