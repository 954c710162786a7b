package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AcquisitionModel is the persistence model for the Acquisition aggregate root.
type AcquisitionModel struct {
	AggregateModel
	Title       string     `gorm:"type:varchar(200);not null"`
	Kind        string     `gorm:"type:varchar(30);not null;index"`
	Status      string     `gorm:"type:varchar(30);not null;index"`
	SupplierID  *uuid.UUID `gorm:"type:uuid;index"`
	DueDate     *time.Time
	Notes       string     `gorm:"type:text"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	ReceivedBy  *uuid.UUID `gorm:"type:uuid"`
	ReceivedAt  *time.Time
	CancelledBy *uuid.UUID `gorm:"type:uuid"`
	CancelledAt *time.Time
	// Associations
	Items []AcquisitionItemModel `gorm:"foreignKey:AcquisitionID;references:ID"`
}

// TableName returns the table name for GORM
func (AcquisitionModel) TableName() string {
	return "acquisitions"
}

// ToDomain converts the persistence model to a domain Acquisition
func (m *AcquisitionModel) ToDomain() *acquisition.Acquisition {
	a := &acquisition.Acquisition{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Title:             m.Title,
		Kind:              acquisition.Kind(m.Kind),
		Status:            acquisition.Status(m.Status),
		SupplierID:        m.SupplierID,
		DueDate:           m.DueDate,
		Notes:             m.Notes,
		CreatedBy:         m.CreatedBy,
		ReceivedBy:        m.ReceivedBy,
		ReceivedAt:        m.ReceivedAt,
		CancelledBy:       m.CancelledBy,
		CancelledAt:       m.CancelledAt,
		Items:             make([]acquisition.Item, len(m.Items)),
	}
	for i := range m.Items {
		a.Items[i] = m.Items[i].ToDomain()
	}
	return a
}

// FromDomain populates the persistence model from a domain Acquisition
func (m *AcquisitionModel) FromDomain(a *acquisition.Acquisition) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Title = a.Title
	m.Kind = string(a.Kind)
	m.Status = string(a.Status)
	m.SupplierID = a.SupplierID
	m.DueDate = a.DueDate
	m.Notes = a.Notes
	m.CreatedBy = a.CreatedBy
	m.ReceivedBy = a.ReceivedBy
	m.ReceivedAt = a.ReceivedAt
	m.CancelledBy = a.CancelledBy
	m.CancelledAt = a.CancelledAt
	m.Items = make([]AcquisitionItemModel, len(a.Items))
	for i := range a.Items {
		m.Items[i] = AcquisitionItemModelFromDomain(&a.Items[i])
	}
}

// AcquisitionModelFromDomain creates a new persistence model from a domain Acquisition
func AcquisitionModelFromDomain(a *acquisition.Acquisition) *AcquisitionModel {
	m := &AcquisitionModel{}
	m.FromDomain(a)
	return m
}

// AcquisitionItemModel is the persistence model for an acquisition line.
// A line naming a material that does not exist yet keeps the creation spec
// in the NewMaterial* columns until it is received.
type AcquisitionItemModel struct {
	BaseModel
	AcquisitionID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	LineNo                  int              `gorm:"not null"`
	MaterialID              *uuid.UUID       `gorm:"type:uuid;index"`
	MaterialName            string           `gorm:"type:varchar(200)"`
	NewMaterialName         *string          `gorm:"type:varchar(200)"`
	NewMaterialColor        string           `gorm:"type:varchar(50)"`
	NewMaterialKind         string           `gorm:"type:varchar(30)"`
	NewMaterialUnit         string           `gorm:"type:varchar(20)"`
	NewMaterialMinimumStock decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	NewMaterialUnitCost     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	OrderedQuantity         decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity        *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Unit                    string           `gorm:"type:varchar(20);not null"`
	UnitCost                decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AcquisitionItemModel) TableName() string {
	return "acquisition_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *AcquisitionItemModel) ToDomain() acquisition.Item {
	item := acquisition.Item{
		ID:               m.ID,
		AcquisitionID:    m.AcquisitionID,
		LineNo:           m.LineNo,
		MaterialID:       m.MaterialID,
		MaterialName:     m.MaterialName,
		OrderedQuantity:  m.OrderedQuantity,
		ReceivedQuantity: m.ReceivedQuantity,
		Unit:             m.Unit,
		UnitCost:         m.UnitCost,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.NewMaterialName != nil {
		item.NewMaterial = &material.Spec{
			Name:         *m.NewMaterialName,
			Color:        m.NewMaterialColor,
			Kind:         material.Kind(m.NewMaterialKind),
			Unit:         m.NewMaterialUnit,
			MinimumStock: m.NewMaterialMinimumStock,
			UnitCost:     m.NewMaterialUnitCost,
		}
	}
	return item
}

// AcquisitionItemModelFromDomain creates a persistence model from a domain Item
func AcquisitionItemModelFromDomain(i *acquisition.Item) AcquisitionItemModel {
	m := AcquisitionItemModel{
		BaseModel:        BaseModel{ID: i.ID, CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt},
		AcquisitionID:    i.AcquisitionID,
		LineNo:           i.LineNo,
		MaterialID:       i.MaterialID,
		MaterialName:     i.MaterialName,
		OrderedQuantity:  i.OrderedQuantity,
		ReceivedQuantity: i.ReceivedQuantity,
		Unit:             i.Unit,
		UnitCost:         i.UnitCost,
	}
	if spec := i.NewMaterial; spec != nil {
		name := spec.Name
		m.NewMaterialName = &name
		m.NewMaterialColor = spec.Color
		m.NewMaterialKind = string(spec.Kind)
		m.NewMaterialUnit = spec.Unit
		m.NewMaterialMinimumStock = spec.MinimumStock
		m.NewMaterialUnitCost = spec.UnitCost
	}
	return m
}

// ProcessedMaterialModel is the persistence model for a processing output record.
type ProcessedMaterialModel struct {
	BaseModel
	AcquisitionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceItemID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	MaterialID    uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	ProcessedBy   uuid.UUID       `gorm:"type:uuid;not null"`
	ProcessedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProcessedMaterialModel) TableName() string {
	return "processed_materials"
}

// ToDomain converts the persistence model to a domain ProcessedMaterial
func (m *ProcessedMaterialModel) ToDomain() acquisition.ProcessedMaterial {
	return acquisition.ProcessedMaterial{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		AcquisitionID: m.AcquisitionID,
		SourceItemID:  m.SourceItemID,
		MaterialID:    m.MaterialID,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		ProcessedBy:   m.ProcessedBy,
		ProcessedAt:   m.ProcessedAt,
	}
}

// ProcessedMaterialModelFromDomain creates a persistence model from a domain ProcessedMaterial
func ProcessedMaterialModelFromDomain(p *acquisition.ProcessedMaterial) ProcessedMaterialModel {
	m := ProcessedMaterialModel{
		AcquisitionID: p.AcquisitionID,
		SourceItemID:  p.SourceItemID,
		MaterialID:    p.MaterialID,
		Quantity:      p.Quantity,
		Unit:          p.Unit,
		ProcessedBy:   p.ProcessedBy,
		ProcessedAt:   p.ProcessedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
