package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// Entries are insert-only.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Create appends a ledger entry
func (r *GormLedgerEntryRepository) Create(ctx context.Context, entry *material.LedgerEntry) error {
	return r.db.WithContext(ctx).Create(models.LedgerEntryModelFromDomain(entry)).Error
}

// FindByMaterial lists the entries of one material
func (r *GormLedgerEntryRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, filter material.EntryFilter) ([]material.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LedgerEntryModel{}).Where("material_id = ?", materialID)
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", string(*filter.SourceType))
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LedgerEntryModel
	if err := applyPaging(query, filter.Filter, LedgerEntrySortFields, "occurred_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return entriesToDomain(rows), total, nil
}

// FindBySource lists every entry written by one source document in posting order
func (r *GormLedgerEntryRepository) FindBySource(ctx context.Context, sourceType material.SourceType, sourceID uuid.UUID) ([]material.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", string(sourceType), sourceID).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return entriesToDomain(rows), nil
}

func entriesToDomain(rows []models.LedgerEntryModel) []material.LedgerEntry {
	out := make([]material.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ material.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
