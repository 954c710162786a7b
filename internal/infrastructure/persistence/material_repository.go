package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaterialRepository implements MaterialRepository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// FindByID finds a material by its ID
func (r *GormMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a material and takes a row lock on it.
// Dialects without row locks (sqlite) ignore the locking clause.
func (r *GormMaterialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*material.Material, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormMaterialRepository) find(db *gorm.DB, id uuid.UUID) (*material.Material, error) {
	var model models.MaterialModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainErrorf(shared.CodeMaterialNotFound, "material %s not found", id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple materials by their IDs; missing ids are skipped
func (r *GormMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]material.Material, error) {
	if len(ids) == 0 {
		return []material.Material{}, nil
	}
	var rows []models.MaterialModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return materialsToDomain(rows), nil
}

// FindAll lists materials matching the filter and the total count before paging
func (r *GormMaterialRepository) FindAll(ctx context.Context, filter material.MaterialFilter) ([]material.Material, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MaterialModel{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", string(*filter.Kind))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(likeClause("name", "color"), pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MaterialModel
	if err := applyPaging(query, filter.Filter, MaterialSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return materialsToDomain(rows), total, nil
}

// FindBelowMinimum finds active materials whose quantity is under their minimum stock
func (r *GormMaterialRepository) FindBelowMinimum(ctx context.Context) ([]material.Material, error) {
	var rows []models.MaterialModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND minimum_stock > 0 AND quantity < minimum_stock", true).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return materialsToDomain(rows), nil
}

// Create inserts a new material
func (r *GormMaterialRepository) Create(ctx context.Context, m *material.Material) error {
	return r.db.WithContext(ctx).Create(models.MaterialModelFromDomain(m)).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormMaterialRepository) SaveWithLock(ctx context.Context, m *material.Material) error {
	result := r.db.WithContext(ctx).
		Model(&models.MaterialModel{}).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Updates(map[string]interface{}{
			"name":          m.Name,
			"color":         m.Color,
			"unit":          m.Unit,
			"quantity":      m.Quantity,
			"minimum_stock": m.MinimumStock,
			"unit_cost":     m.UnitCost,
			"is_active":     m.IsActive,
			"version":       m.Version,
			"updated_at":    m.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "Material was modified by another transaction")
	}
	return nil
}

func materialsToDomain(rows []models.MaterialModel) []material.Material {
	out := make([]material.Material, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// Ensure GormMaterialRepository implements MaterialRepository
var _ material.MaterialRepository = (*GormMaterialRepository)(nil)
