package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FlowMetrics records how material moves through the engine: ledger
// movements, receipts, processing runs and plan completions.
type FlowMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	movementsTotal       *Counter
	movedQuantity        metric.Float64Counter
	acquisitionsReceived *Counter
	processingRuns       *Counter
	planCompletions      *Counter
	lowStockTransitions  *Counter

	// Gauge metrics (point-in-time values)
	lowStockMaterials *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	stockProvider StockMetricsProvider
}

// StockMetricsProvider supplies ledger state for periodic gauge collection
// without tying telemetry to the material domain.
type StockMetricsProvider interface {
	// LowStockCountByKind returns the number of active materials under their
	// minimum stock, grouped by material kind
	LowStockCountByKind(ctx context.Context) (map[string]int64, error)
}

// FlowMetricsConfig holds configuration for flow metrics.
type FlowMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StockProvider   StockMetricsProvider
}

// NewFlowMetrics creates a new FlowMetrics instance.
func NewFlowMetrics(cfg FlowMetricsConfig) (*FlowMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	fm := &FlowMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		stockProvider: cfg.StockProvider,
	}

	var err error
	fm.movementsTotal, err = NewCounter(cfg.Meter,
		"matflow_stock_movements_total",
		"Total number of ledger credits and debits",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	fm.movedQuantity, err = cfg.Meter.Float64Counter("matflow_stock_moved_quantity",
		metric.WithDescription("Quantity moved through the ledger, in each material's own unit"),
		metric.WithUnit("{units}"),
	)
	if err != nil {
		return nil, err
	}

	fm.acquisitionsReceived, err = NewCounter(cfg.Meter,
		"matflow_acquisitions_received_total",
		"Total number of acquisitions received",
		"{acquisitions}",
	)
	if err != nil {
		return nil, err
	}

	fm.processingRuns, err = NewCounter(cfg.Meter,
		"matflow_processing_runs_total",
		"Total number of recyclable processing runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	fm.planCompletions, err = NewCounter(cfg.Meter,
		"matflow_plan_completions_total",
		"Total number of production plans completed",
		"{plans}",
	)
	if err != nil {
		return nil, err
	}

	fm.lowStockTransitions, err = NewCounter(cfg.Meter,
		"matflow_low_stock_movements_total",
		"Movements that left a material under its minimum stock",
		"{movements}",
	)
	if err != nil {
		return nil, err
	}

	fm.lowStockMaterials, err = NewGauge(cfg.Meter,
		"matflow_low_stock_materials",
		"Number of materials below minimum stock",
		"{materials}",
	)
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordMovement records one ledger credit or debit.
func (fm *FlowMetrics) RecordMovement(ctx context.Context, direction, sourceType, kind string, quantity decimal.Decimal, belowMinimum bool) {
	attrs := []attribute.KeyValue{
		AttrDirection.String(direction),
		AttrSourceType.String(sourceType),
		AttrMaterialKind.String(kind),
	}
	fm.movementsTotal.Inc(ctx, attrs...)
	fm.movedQuantity.Add(ctx, quantity.InexactFloat64(), metric.WithAttributes(attrs...))
	if belowMinimum {
		fm.lowStockTransitions.Inc(ctx, AttrMaterialKind.String(kind))
	}
}

// RecordAcquisitionReceived records an acquisition reaching its received status.
func (fm *FlowMetrics) RecordAcquisitionReceived(ctx context.Context, kind, status string) {
	fm.acquisitionsReceived.Inc(ctx,
		AttrAcquisitionKind.String(kind),
		AttrStatus.String(status),
	)
}

// RecordProcessingRun records one recyclable processing call.
func (fm *FlowMetrics) RecordProcessingRun(ctx context.Context, outputs int) {
	fm.processingRuns.Inc(ctx, attribute.Int("outputs", outputs))
}

// RecordPlanCompleted records a completed production plan.
func (fm *FlowMetrics) RecordPlanCompleted(ctx context.Context, variant string) {
	fm.planCompletions.Inc(ctx, AttrPlanVariant.String(variant))
}

// RecordLowStockCount records the number of materials below minimum for a kind.
func (fm *FlowMetrics) RecordLowStockCount(ctx context.Context, kind string, count int64) {
	fm.lowStockMaterials.Record(ctx, count, AttrMaterialKind.String(kind))
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (fm *FlowMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	fm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go fm.runPeriodicCollection(ctx, interval)
	})
}

func (fm *FlowMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	fm.collectStockMetrics(ctx)

	for {
		select {
		case <-fm.stopChan:
			fm.logger.Info("Stopping periodic flow metrics collection")
			return
		case <-ctx.Done():
			fm.logger.Info("Context cancelled, stopping periodic flow metrics collection")
			return
		case <-ticker.C:
			fm.collectStockMetrics(ctx)
		}
	}
}

func (fm *FlowMetrics) collectStockMetrics(ctx context.Context) {
	if fm.stockProvider == nil {
		fm.logger.Debug("No stock provider configured, skipping stock metrics collection")
		return
	}
	counts, err := fm.stockProvider.LowStockCountByKind(ctx)
	if err != nil {
		fm.logger.Warn("Failed to get low stock counts", zap.Error(err))
		return
	}
	for kind, count := range counts {
		fm.RecordLowStockCount(ctx, kind, count)
	}
}

// Stop stops the periodic collection.
func (fm *FlowMetrics) Stop() {
	fm.stopOnce.Do(func() {
		close(fm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewFlowMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
