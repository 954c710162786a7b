package event

import (
	"context"

	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LowStockHandler warns when a debit leaves a material under its minimum stock.
type LowStockHandler struct {
	logger *zap.Logger
}

// NewLowStockHandler creates a LowStockHandler
func NewLowStockHandler(logger *zap.Logger) *LowStockHandler {
	return &LowStockHandler{logger: logger}
}

// EventTypes returns the stock movement events
func (h *LowStockHandler) EventTypes() []string {
	return []string{material.EventTypeStockDebited}
}

// Handle logs a warning for movements that end below the minimum
func (h *LowStockHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	moved, ok := event.(*material.StockMovedEvent)
	if !ok || !moved.IsBelowMinimum() {
		return nil
	}
	h.logger.Warn("material below minimum stock",
		zap.String("material_id", moved.MaterialID.String()),
		zap.String("material_name", moved.MaterialName),
		zap.String("kind", moved.Kind.String()),
		zap.String("balance", moved.BalanceAfter.String()),
		zap.String("minimum_stock", moved.MinimumStock.String()),
		zap.String("source_type", string(moved.SourceType)),
		zap.String("source_id", moved.SourceID.String()),
	)
	return nil
}

// FlowRecorder receives the counters derived from committed events.
// telemetry.FlowMetrics implements it.
type FlowRecorder interface {
	RecordMovement(ctx context.Context, direction, sourceType, kind string, quantity decimal.Decimal, belowMinimum bool)
	RecordAcquisitionReceived(ctx context.Context, kind, status string)
	RecordProcessingRun(ctx context.Context, outputs int)
	RecordPlanCompleted(ctx context.Context, variant string)
}

// FlowMetricsHandler turns committed events into flow metrics.
type FlowMetricsHandler struct {
	recorder FlowRecorder
}

// NewFlowMetricsHandler creates a FlowMetricsHandler
func NewFlowMetricsHandler(recorder FlowRecorder) *FlowMetricsHandler {
	return &FlowMetricsHandler{recorder: recorder}
}

// EventTypes returns every event that feeds a metric
func (h *FlowMetricsHandler) EventTypes() []string {
	return []string{
		material.EventTypeStockCredited,
		material.EventTypeStockDebited,
		acquisition.EventTypeAcquisitionReceived,
		acquisition.EventTypeRecyclablesProcessed,
		production.EventTypePlanCompleted,
	}
}

// Handle records the metric matching the event
func (h *FlowMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *material.StockMovedEvent:
		h.recorder.RecordMovement(ctx, string(e.Direction), string(e.SourceType), e.Kind.String(), e.Quantity, e.IsBelowMinimum())
	case *acquisition.AcquisitionReceivedEvent:
		h.recorder.RecordAcquisitionReceived(ctx, string(e.Kind), string(e.Status))
	case *acquisition.RecyclablesProcessedEvent:
		h.recorder.RecordProcessingRun(ctx, e.OutputCount)
	case *production.PlanCompletedEvent:
		h.recorder.RecordPlanCompleted(ctx, string(e.Variant))
	}
	return nil
}

var (
	_ shared.EventHandler = (*LowStockHandler)(nil)
	_ shared.EventHandler = (*FlowMetricsHandler)(nil)
)
