package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
)

// PlanRepository persists ProductionPlan aggregates with their lines
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductionPlan, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ProductionPlan, error)
	FindAll(ctx context.Context, filter PlanFilter) ([]ProductionPlan, int64, error)
	Create(ctx context.Context, p *ProductionPlan) error
	// SaveWithLock persists the plan only if the stored version is p.Version-1
	SaveWithLock(ctx context.Context, p *ProductionPlan) error
}

// PlanFilter narrows a plan listing
type PlanFilter struct {
	shared.Filter
	Variant          *Variant
	Status           *Status
	TargetMaterialID *uuid.UUID
}

// TemplateRepository stores one template per target material
type TemplateRepository interface {
	// FindByTarget returns nil, nil when no template exists
	FindByTarget(ctx context.Context, targetMaterialID uuid.UUID) (*ProductTemplate, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductTemplate, int64, error)
	// Save inserts or replaces the template for its target
	Save(ctx context.Context, t *ProductTemplate) error
}
