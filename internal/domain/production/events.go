package production

import (
	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeProductionPlan is the aggregate type name used in events
const AggregateTypeProductionPlan = "ProductionPlan"

// Event type constants
const (
	EventTypePlanCreated   = "ProductionPlanCreated"
	EventTypePlanStarted   = "ProductionPlanStarted"
	EventTypePlanCompleted = "ProductionPlanCompleted"
	EventTypePlanCancelled = "ProductionPlanCancelled"
)

// PlanCreatedEvent is raised when a plan is created
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	Variant          Variant         `json:"variant"`
	TargetMaterialID uuid.UUID       `json:"target_material_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	CanProduce       bool            `json:"can_produce"`
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(p *ProductionPlan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePlanCreated, AggregateTypeProductionPlan, p.ID, p.CreatedBy),
		Variant:          p.Variant,
		TargetMaterialID: p.TargetMaterialID,
		Quantity:         p.QuantityToProduce,
		CanProduce:       p.CanProduce,
	}
}

// PlanStartedEvent is raised when a plan moves to InProgress
type PlanStartedEvent struct {
	shared.BaseDomainEvent
}

// NewPlanStartedEvent creates a new PlanStartedEvent
func NewPlanStartedEvent(p *ProductionPlan, actorID uuid.UUID) *PlanStartedEvent {
	return &PlanStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanStarted, AggregateTypeProductionPlan, p.ID, actorID),
	}
}

// PlanCompletedEvent is raised when a plan is completed
type PlanCompletedEvent struct {
	shared.BaseDomainEvent
	Variant          Variant          `json:"variant"`
	TargetMaterialID uuid.UUID        `json:"target_material_id"`
	PlannedQuantity  decimal.Decimal  `json:"planned_quantity"`
	ActualQuantity   decimal.Decimal  `json:"actual_quantity"`
	Outputs          []ProducedOutput `json:"outputs"`
}

// NewPlanCompletedEvent creates a new PlanCompletedEvent
func NewPlanCompletedEvent(p *ProductionPlan, actorID uuid.UUID) *PlanCompletedEvent {
	actual := decimal.Zero
	if p.ActualQuantityProduced != nil {
		actual = *p.ActualQuantityProduced
	}
	return &PlanCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePlanCompleted, AggregateTypeProductionPlan, p.ID, actorID),
		Variant:          p.Variant,
		TargetMaterialID: p.TargetMaterialID,
		PlannedQuantity:  p.QuantityToProduce,
		ActualQuantity:   actual,
		Outputs:          p.ProducedOutputs,
	}
}

// PlanCancelledEvent is raised when a plan is cancelled
type PlanCancelledEvent struct {
	shared.BaseDomainEvent
}

// NewPlanCancelledEvent creates a new PlanCancelledEvent
func NewPlanCancelledEvent(p *ProductionPlan, actorID uuid.UUID) *PlanCancelledEvent {
	return &PlanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCancelled, AggregateTypeProductionPlan, p.ID, actorID),
	}
}
