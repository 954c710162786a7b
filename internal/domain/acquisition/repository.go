package acquisition

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
)

// AcquisitionRepository persists Acquisition aggregates with their items
type AcquisitionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Acquisition, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Acquisition, error)
	FindAll(ctx context.Context, filter Filter) ([]Acquisition, int64, error)
	Create(ctx context.Context, a *Acquisition) error
	// SaveWithLock persists header and items only if the stored version is a.Version-1
	SaveWithLock(ctx context.Context, a *Acquisition) error
}

// Filter narrows an acquisition listing
type Filter struct {
	shared.Filter
	Kind   *Kind
	Status *Status
}

// ProcessedMaterialRepository stores processing provenance
type ProcessedMaterialRepository interface {
	CreateBatch(ctx context.Context, records []ProcessedMaterial) error
	FindByAcquisition(ctx context.Context, acquisitionID uuid.UUID) ([]ProcessedMaterial, error)
}
