package acquisition

import (
	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeAcquisition is the aggregate type name used in events
const AggregateTypeAcquisition = "Acquisition"

// Event type constants
const (
	EventTypeAcquisitionCreated   = "AcquisitionCreated"
	EventTypeAcquisitionReceived  = "AcquisitionReceived"
	EventTypeAcquisitionCancelled = "AcquisitionCancelled"
	EventTypeRecyclablesProcessed = "RecyclablesProcessed"
)

// AcquisitionCreatedEvent is raised when a draft is created
type AcquisitionCreatedEvent struct {
	shared.BaseDomainEvent
	Kind      Kind `json:"kind"`
	ItemCount int  `json:"item_count"`
}

// NewAcquisitionCreatedEvent creates a new AcquisitionCreatedEvent
func NewAcquisitionCreatedEvent(a *Acquisition) *AcquisitionCreatedEvent {
	return &AcquisitionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAcquisitionCreated, AggregateTypeAcquisition, a.ID, a.CreatedBy),
		Kind:            a.Kind,
		ItemCount:       len(a.Items),
	}
}

// AcquisitionReceivedEvent is raised when an acquisition is received
type AcquisitionReceivedEvent struct {
	shared.BaseDomainEvent
	Kind          Kind            `json:"kind"`
	Status        Status          `json:"status"`
	Receipts      []Receipt       `json:"receipts"`
	TotalReceived decimal.Decimal `json:"total_received"`
}

// NewAcquisitionReceivedEvent creates a new AcquisitionReceivedEvent
func NewAcquisitionReceivedEvent(a *Acquisition, receipts []Receipt) *AcquisitionReceivedEvent {
	actor := uuid.Nil
	if a.ReceivedBy != nil {
		actor = *a.ReceivedBy
	}
	return &AcquisitionReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAcquisitionReceived, AggregateTypeAcquisition, a.ID, actor),
		Kind:            a.Kind,
		Status:          a.Status,
		Receipts:        receipts,
		TotalReceived:   a.TotalReceivedQuantity(),
	}
}

// AcquisitionCancelledEvent is raised when a draft is cancelled
type AcquisitionCancelledEvent struct {
	shared.BaseDomainEvent
}

// NewAcquisitionCancelledEvent creates a new AcquisitionCancelledEvent
func NewAcquisitionCancelledEvent(a *Acquisition, actorID uuid.UUID) *AcquisitionCancelledEvent {
	return &AcquisitionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAcquisitionCancelled, AggregateTypeAcquisition, a.ID, actorID),
	}
}

// RecyclablesProcessedEvent is raised after a processing run
type RecyclablesProcessedEvent struct {
	shared.BaseDomainEvent
	OutputCount    int             `json:"output_count"`
	TotalProcessed decimal.Decimal `json:"total_processed"`
}

// NewRecyclablesProcessedEvent creates a new RecyclablesProcessedEvent
func NewRecyclablesProcessedEvent(a *Acquisition, records []ProcessedMaterial, actorID uuid.UUID) *RecyclablesProcessedEvent {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Quantity)
	}
	return &RecyclablesProcessedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRecyclablesProcessed, AggregateTypeAcquisition, a.ID, actorID),
		OutputCount:     len(records),
		TotalProcessed:  total,
	}
}
