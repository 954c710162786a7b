package material

import (
	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeMaterial is the aggregate type name used in events
const AggregateTypeMaterial = "Material"

// Event type constants
const (
	EventTypeMaterialCreated = "MaterialCreated"
	EventTypeStockCredited   = "StockCredited"
	EventTypeStockDebited    = "StockDebited"
)

// MaterialCreatedEvent is raised when a material is created
type MaterialCreatedEvent struct {
	shared.BaseDomainEvent
	MaterialID uuid.UUID `json:"material_id"`
	Name       string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Unit       string    `json:"unit"`
}

// NewMaterialCreatedEvent creates a new MaterialCreatedEvent
func NewMaterialCreatedEvent(m *Material, actorID uuid.UUID) *MaterialCreatedEvent {
	return &MaterialCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMaterialCreated, AggregateTypeMaterial, m.ID, actorID),
		MaterialID:      m.ID,
		Name:            m.Name,
		Kind:            m.Kind,
		Unit:            m.Unit,
	}
}

// StockMovedEvent is raised for every credit and debit
type StockMovedEvent struct {
	shared.BaseDomainEvent
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Kind         Kind            `json:"kind"`
	Direction    Direction       `json:"direction"`
	Quantity     decimal.Decimal `json:"quantity"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	MinimumStock decimal.Decimal `json:"minimum_stock"`
	SourceType   SourceType      `json:"source_type"`
	SourceID     uuid.UUID       `json:"source_id"`
}

// NewStockMovedEvent creates the event matching a ledger entry
func NewStockMovedEvent(m *Material, entry *LedgerEntry) *StockMovedEvent {
	eventType := EventTypeStockCredited
	if entry.Direction == DirectionDebit {
		eventType = EventTypeStockDebited
	}
	return &StockMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeMaterial, m.ID, entry.ActorID),
		MaterialID:      m.ID,
		MaterialName:    m.Name,
		Kind:            m.Kind,
		Direction:       entry.Direction,
		Quantity:        entry.Quantity,
		BalanceAfter:    entry.BalanceAfter,
		MinimumStock:    m.MinimumStock,
		SourceType:      entry.SourceType,
		SourceID:        entry.SourceID,
	}
}

// IsBelowMinimum reports whether the movement left stock under the minimum level
func (e *StockMovedEvent) IsBelowMinimum() bool {
	return e.MinimumStock.IsPositive() && e.BalanceAfter.LessThan(e.MinimumStock)
}
