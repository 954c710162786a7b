package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAcquisitionRepository implements AcquisitionRepository using GORM
type GormAcquisitionRepository struct {
	db *gorm.DB
}

// NewGormAcquisitionRepository creates a new GormAcquisitionRepository
func NewGormAcquisitionRepository(db *gorm.DB) *GormAcquisitionRepository {
	return &GormAcquisitionRepository{db: db}
}

func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds an acquisition with its items
func (r *GormAcquisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*acquisition.Acquisition, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds an acquisition and locks its header row
func (r *GormAcquisitionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*acquisition.Acquisition, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormAcquisitionRepository) find(db *gorm.DB, id uuid.UUID) (*acquisition.Acquisition, error) {
	var model models.AcquisitionModel
	if err := db.Preload("Items", orderedItems).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists acquisitions matching the filter and the total count before paging
func (r *GormAcquisitionRepository) FindAll(ctx context.Context, filter acquisition.Filter) ([]acquisition.Acquisition, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AcquisitionModel{})
	if filter.Kind != nil {
		query = query.Where("kind = ?", string(*filter.Kind))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Search != "" {
		query = query.Where(likeClause("title"), likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AcquisitionModel
	if err := applyPaging(query, filter.Filter, AcquisitionSortFields, "created_at").
		Preload("Items", orderedItems).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]acquisition.Acquisition, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new acquisition with its items
func (r *GormAcquisitionRepository) Create(ctx context.Context, a *acquisition.Acquisition) error {
	return r.db.WithContext(ctx).Create(models.AcquisitionModelFromDomain(a)).Error
}

// SaveWithLock saves the header with optimistic locking and replaces the items
func (r *GormAcquisitionRepository) SaveWithLock(ctx context.Context, a *acquisition.Acquisition) error {
	model := models.AcquisitionModelFromDomain(a)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.AcquisitionModel{}).
			Where("id = ? AND version = ?", a.ID, a.Version-1).
			Updates(map[string]interface{}{
				"title":        model.Title,
				"kind":         model.Kind,
				"status":       model.Status,
				"supplier_id":  model.SupplierID,
				"due_date":     model.DueDate,
				"notes":        model.Notes,
				"received_by":  model.ReceivedBy,
				"received_at":  model.ReceivedAt,
				"cancelled_by": model.CancelledBy,
				"cancelled_at": model.CancelledAt,
				"version":      model.Version,
				"updated_at":   model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeConcurrencyConflict, "Acquisition was modified by another transaction")
		}

		if err := tx.Where("acquisition_id = ?", a.ID).Delete(&models.AcquisitionItemModel{}).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
}

// Ensure GormAcquisitionRepository implements AcquisitionRepository
var _ acquisition.AcquisitionRepository = (*GormAcquisitionRepository)(nil)

// GormProcessedMaterialRepository implements ProcessedMaterialRepository using GORM
type GormProcessedMaterialRepository struct {
	db *gorm.DB
}

// NewGormProcessedMaterialRepository creates a new GormProcessedMaterialRepository
func NewGormProcessedMaterialRepository(db *gorm.DB) *GormProcessedMaterialRepository {
	return &GormProcessedMaterialRepository{db: db}
}

// CreateBatch inserts processing records
func (r *GormProcessedMaterialRepository) CreateBatch(ctx context.Context, records []acquisition.ProcessedMaterial) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]models.ProcessedMaterialModel, len(records))
	for i := range records {
		rows[i] = models.ProcessedMaterialModelFromDomain(&records[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByAcquisition lists the processing records of an acquisition in processing order
func (r *GormProcessedMaterialRepository) FindByAcquisition(ctx context.Context, acquisitionID uuid.UUID) ([]acquisition.ProcessedMaterial, error) {
	var rows []models.ProcessedMaterialModel
	if err := r.db.WithContext(ctx).
		Where("acquisition_id = ?", acquisitionID).
		Order("processed_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]acquisition.ProcessedMaterial, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Ensure GormProcessedMaterialRepository implements ProcessedMaterialRepository
var _ acquisition.ProcessedMaterialRepository = (*GormProcessedMaterialRepository)(nil)
