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

// GormPlanRepository implements PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

func withPlanLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("RequiredMaterials", orderedLines).
		Preload("ProducedOutputs", orderedLines)
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a plan with its lines
func (r *GormPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.ProductionPlan, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a plan and locks its header row
func (r *GormPlanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*production.ProductionPlan, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPlanRepository) find(db *gorm.DB, id uuid.UUID) (*production.ProductionPlan, error) {
	var model models.ProductionPlanModel
	if err := withPlanLines(db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists plans matching the filter and the total count before paging
func (r *GormPlanRepository) FindAll(ctx context.Context, filter production.PlanFilter) ([]production.ProductionPlan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProductionPlanModel{})
	if filter.Variant != nil {
		query = query.Where("variant = ?", string(*filter.Variant))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.TargetMaterialID != nil {
		query = query.Where("target_material_id = ?", *filter.TargetMaterialID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(likeClause("name", "target_material_name"), pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductionPlanModel
	if err := withPlanLines(applyPaging(query, filter.Filter, ProductionPlanSortFields, "created_at")).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]production.ProductionPlan, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new plan with its required materials
func (r *GormPlanRepository) Create(ctx context.Context, p *production.ProductionPlan) error {
	return r.db.WithContext(ctx).Create(models.ProductionPlanModelFromDomain(p)).Error
}

// SaveWithLock saves the header with optimistic locking and replaces the lines
func (r *GormPlanRepository) SaveWithLock(ctx context.Context, p *production.ProductionPlan) error {
	model := models.ProductionPlanModelFromDomain(p)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProductionPlanModel{}).
			Where("id = ? AND version = ?", p.ID, p.Version-1).
			Updates(map[string]interface{}{
				"name":                              model.Name,
				"variant":                           model.Variant,
				"target_material_id":                model.TargetMaterialID,
				"target_material_name":              model.TargetMaterialName,
				"quantity_to_produce":               model.QuantityToProduce,
				"status":                            model.Status,
				"planned_start_date":                model.PlannedStartDate,
				"estimated_production_time_minutes": model.EstimatedProductionTimeMinutes,
				"notes":                             model.Notes,
				"can_produce":                       model.CanProduce,
				"assigned_to":                       model.AssignedTo,
				"started_by":                        model.StartedBy,
				"started_at":                        model.StartedAt,
				"completed_by":                      model.CompletedBy,
				"completed_at":                      model.CompletedAt,
				"cancelled_at":                      model.CancelledAt,
				"actual_quantity_produced":          model.ActualQuantityProduced,
				"actual_production_time_minutes":    model.ActualProductionTimeMinutes,
				"version":                           model.Version,
				"updated_at":                        model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, "Production plan was modified by another transaction")
		}

		if err := tx.Where("plan_id = ?", p.ID).Delete(&models.RequiredMaterialModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plan_id = ?", p.ID).Delete(&models.ProducedOutputModel{}).Error; err != nil {
			return err
		}
		if len(model.RequiredMaterials) > 0 {
			if err := tx.Create(&model.RequiredMaterials).Error; err != nil {
				return err
			}
		}
		if len(model.ProducedOutputs) > 0 {
			if err := tx.Create(&model.ProducedOutputs).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormPlanRepository implements PlanRepository
var _ production.PlanRepository = (*GormPlanRepository)(nil)
