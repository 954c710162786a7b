package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTemplateRepository implements TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByTarget returns the template for a target material, or nil when none is stored
func (r *GormTemplateRepository) FindByTarget(ctx context.Context, targetMaterialID uuid.UUID) (*production.ProductTemplate, error) {
	var model models.ProductTemplateModel
	err := r.db.WithContext(ctx).
		Preload("Lines", orderedLines).
		First(&model, "target_material_id = ?", targetMaterialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists templates and the total count before paging
func (r *GormTemplateRepository) FindAll(ctx context.Context, filter shared.Filter) ([]production.ProductTemplate, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductTemplateModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductTemplateModel
	if err := applyPaging(query, filter, ProductTemplateSortFields, "updated_at").
		Preload("Lines", orderedLines).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]production.ProductTemplate, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save upserts the template header, keeping its original created_at, and replaces its lines
func (r *GormTemplateRepository) Save(ctx context.Context, t *production.ProductTemplate) error {
	model := models.ProductTemplateModelFromDomain(t)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "target_material_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"estimated_production_time_minutes", "updated_by", "updated_at"}),
			}).
			Create(model).Error; err != nil {
			return err
		}
		if err := tx.Where("target_material_id = ?", t.TargetMaterialID).Delete(&models.TemplateLineModel{}).Error; err != nil {
			return err
		}
		if len(model.Lines) == 0 {
			return nil
		}
		return tx.Create(&model.Lines).Error
	})
}

// Ensure GormTemplateRepository implements TemplateRepository
var _ production.TemplateRepository = (*GormTemplateRepository)(nil)
