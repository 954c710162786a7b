package material

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
)

// MaterialRepository persists Material aggregates
type MaterialRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)
	// FindByIDForUpdate reads the row with a write lock where the store supports it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Material, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Material, error)
	FindAll(ctx context.Context, filter MaterialFilter) ([]Material, int64, error)
	FindBelowMinimum(ctx context.Context) ([]Material, error)
	Create(ctx context.Context, m *Material) error
	// SaveWithLock persists changes only if the stored version is m.Version-1
	SaveWithLock(ctx context.Context, m *Material) error
}

// MaterialFilter narrows a material listing
type MaterialFilter struct {
	shared.Filter
	Kind     *Kind
	IsActive *bool
}

// LedgerEntryRepository is the append-only store of ledger entries
type LedgerEntryRepository interface {
	Create(ctx context.Context, entry *LedgerEntry) error
	FindByMaterial(ctx context.Context, materialID uuid.UUID, filter EntryFilter) ([]LedgerEntry, int64, error)
	FindBySource(ctx context.Context, sourceType SourceType, sourceID uuid.UUID) ([]LedgerEntry, error)
}

// EntryFilter narrows a ledger history listing
type EntryFilter struct {
	shared.Filter
	SourceType *SourceType
	SourceID   *uuid.UUID
}
