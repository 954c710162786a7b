package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/shopspring/decimal"
)

// ProductionPlanModel is the persistence model for the ProductionPlan aggregate root.
type ProductionPlanModel struct {
	AggregateModel
	Name                           string          `gorm:"type:varchar(200);not null"`
	Variant                        string          `gorm:"type:varchar(30);not null;index"`
	TargetMaterialID               uuid.UUID       `gorm:"type:uuid;not null;index"`
	TargetMaterialName             string          `gorm:"type:varchar(200)"`
	QuantityToProduce              decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Status                         string          `gorm:"type:varchar(30);not null;index"`
	PlannedStartDate               *time.Time
	EstimatedProductionTimeMinutes int        `gorm:"not null;default:0"`
	Notes                          string     `gorm:"type:text"`
	CanProduce                     bool       `gorm:"not null;default:false"`
	CreatedBy                      uuid.UUID  `gorm:"type:uuid;not null"`
	AssignedTo                     *uuid.UUID `gorm:"type:uuid;index"`
	StartedBy                      *uuid.UUID `gorm:"type:uuid"`
	StartedAt                      *time.Time
	CompletedBy                    *uuid.UUID `gorm:"type:uuid"`
	CompletedAt                    *time.Time
	CancelledAt                    *time.Time
	ActualQuantityProduced         *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ActualProductionTimeMinutes    *int
	// Associations
	RequiredMaterials []RequiredMaterialModel `gorm:"foreignKey:PlanID;references:ID"`
	ProducedOutputs   []ProducedOutputModel   `gorm:"foreignKey:PlanID;references:ID"`
}

// TableName returns the table name for GORM
func (ProductionPlanModel) TableName() string {
	return "production_plans"
}

// ToDomain converts the persistence model to a domain ProductionPlan
func (m *ProductionPlanModel) ToDomain() *production.ProductionPlan {
	p := &production.ProductionPlan{
		BaseAggregateRoot:              m.ToDomainAggregateRoot(),
		Name:                           m.Name,
		Variant:                        production.Variant(m.Variant),
		TargetMaterialID:               m.TargetMaterialID,
		TargetMaterialName:             m.TargetMaterialName,
		QuantityToProduce:              m.QuantityToProduce,
		Status:                         production.Status(m.Status),
		PlannedStartDate:               m.PlannedStartDate,
		EstimatedProductionTimeMinutes: m.EstimatedProductionTimeMinutes,
		Notes:                          m.Notes,
		CanProduce:                     m.CanProduce,
		CreatedBy:                      m.CreatedBy,
		AssignedTo:                     m.AssignedTo,
		StartedBy:                      m.StartedBy,
		StartedAt:                      m.StartedAt,
		CompletedBy:                    m.CompletedBy,
		CompletedAt:                    m.CompletedAt,
		CancelledAt:                    m.CancelledAt,
		ActualQuantityProduced:         m.ActualQuantityProduced,
		ActualProductionTimeMinutes:    m.ActualProductionTimeMinutes,
		RequiredMaterials:              make([]production.RequiredMaterial, len(m.RequiredMaterials)),
	}
	for i := range m.RequiredMaterials {
		p.RequiredMaterials[i] = m.RequiredMaterials[i].ToDomain()
	}
	for i := range m.ProducedOutputs {
		p.ProducedOutputs = append(p.ProducedOutputs, m.ProducedOutputs[i].ToDomain())
	}
	return p
}

// FromDomain populates the persistence model from a domain ProductionPlan
func (m *ProductionPlanModel) FromDomain(p *production.ProductionPlan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Variant = string(p.Variant)
	m.TargetMaterialID = p.TargetMaterialID
	m.TargetMaterialName = p.TargetMaterialName
	m.QuantityToProduce = p.QuantityToProduce
	m.Status = string(p.Status)
	m.PlannedStartDate = p.PlannedStartDate
	m.EstimatedProductionTimeMinutes = p.EstimatedProductionTimeMinutes
	m.Notes = p.Notes
	m.CanProduce = p.CanProduce
	m.CreatedBy = p.CreatedBy
	m.AssignedTo = p.AssignedTo
	m.StartedBy = p.StartedBy
	m.StartedAt = p.StartedAt
	m.CompletedBy = p.CompletedBy
	m.CompletedAt = p.CompletedAt
	m.CancelledAt = p.CancelledAt
	m.ActualQuantityProduced = p.ActualQuantityProduced
	m.ActualProductionTimeMinutes = p.ActualProductionTimeMinutes
	m.RequiredMaterials = make([]RequiredMaterialModel, len(p.RequiredMaterials))
	for i := range p.RequiredMaterials {
		m.RequiredMaterials[i] = RequiredMaterialModelFromDomain(&p.RequiredMaterials[i])
	}
	m.ProducedOutputs = make([]ProducedOutputModel, len(p.ProducedOutputs))
	for i := range p.ProducedOutputs {
		m.ProducedOutputs[i] = ProducedOutputModelFromDomain(p.ID, i+1, &p.ProducedOutputs[i])
	}
}

// ProductionPlanModelFromDomain creates a new persistence model from a domain ProductionPlan
func ProductionPlanModelFromDomain(p *production.ProductionPlan) *ProductionPlanModel {
	m := &ProductionPlanModel{}
	m.FromDomain(p)
	return m
}

// RequiredMaterialModel is the persistence model for a plan input line.
type RequiredMaterialModel struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primary_key"`
	PlanID                  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_plan_material,priority:1"`
	LineNo                  int             `gorm:"not null"`
	MaterialID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_plan_material,priority:2"`
	MaterialName            string          `gorm:"type:varchar(200)"`
	Unit                    string          `gorm:"type:varchar(20)"`
	RequiredQuantityPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	AvailableQuantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost                decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (RequiredMaterialModel) TableName() string {
	return "plan_required_materials"
}

// ToDomain converts the persistence model to a domain RequiredMaterial
func (m *RequiredMaterialModel) ToDomain() production.RequiredMaterial {
	return production.RequiredMaterial{
		ID:                      m.ID,
		PlanID:                  m.PlanID,
		LineNo:                  m.LineNo,
		MaterialID:              m.MaterialID,
		MaterialName:            m.MaterialName,
		Unit:                    m.Unit,
		RequiredQuantityPerUnit: m.RequiredQuantityPerUnit,
		AvailableQuantity:       m.AvailableQuantity,
		UnitCost:                m.UnitCost,
	}
}

// RequiredMaterialModelFromDomain creates a persistence model from a domain RequiredMaterial
func RequiredMaterialModelFromDomain(r *production.RequiredMaterial) RequiredMaterialModel {
	return RequiredMaterialModel{
		ID:                      r.ID,
		PlanID:                  r.PlanID,
		LineNo:                  r.LineNo,
		MaterialID:              r.MaterialID,
		MaterialName:            r.MaterialName,
		Unit:                    r.Unit,
		RequiredQuantityPerUnit: r.RequiredQuantityPerUnit,
		AvailableQuantity:       r.AvailableQuantity,
		UnitCost:                r.UnitCost,
	}
}

// ProducedOutputModel is the persistence model for a material credited on completion.
type ProducedOutputModel struct {
	PlanID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	LineNo       int             `gorm:"primary_key;autoIncrement:false"`
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null"`
	MaterialName string          `gorm:"type:varchar(200)"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit         string          `gorm:"type:varchar(20)"`
}

// TableName returns the table name for GORM
func (ProducedOutputModel) TableName() string {
	return "plan_produced_outputs"
}

// ToDomain converts the persistence model to a domain ProducedOutput
func (m *ProducedOutputModel) ToDomain() production.ProducedOutput {
	return production.ProducedOutput{
		MaterialID:   m.MaterialID,
		MaterialName: m.MaterialName,
		Quantity:     m.Quantity,
		Unit:         m.Unit,
	}
}

// ProducedOutputModelFromDomain creates a persistence model from a domain ProducedOutput
func ProducedOutputModelFromDomain(planID uuid.UUID, lineNo int, o *production.ProducedOutput) ProducedOutputModel {
	return ProducedOutputModel{
		PlanID:       planID,
		LineNo:       lineNo,
		MaterialID:   o.MaterialID,
		MaterialName: o.MaterialName,
		Quantity:     o.Quantity,
		Unit:         o.Unit,
	}
}

// ProductTemplateModel is the persistence model for a product template,
// keyed by its target material.
type ProductTemplateModel struct {
	TargetMaterialID               uuid.UUID `gorm:"type:uuid;primary_key"`
	EstimatedProductionTimeMinutes int       `gorm:"not null;default:0"`
	UpdatedBy                      uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt                      time.Time `gorm:"not null"`
	UpdatedAt                      time.Time `gorm:"not null"`
	// Associations
	Lines []TemplateLineModel `gorm:"foreignKey:TargetMaterialID;references:TargetMaterialID"`
}

// TableName returns the table name for GORM
func (ProductTemplateModel) TableName() string {
	return "product_templates"
}

// ToDomain converts the persistence model to a domain ProductTemplate
func (m *ProductTemplateModel) ToDomain() *production.ProductTemplate {
	t := &production.ProductTemplate{
		TargetMaterialID:               m.TargetMaterialID,
		EstimatedProductionTimeMinutes: m.EstimatedProductionTimeMinutes,
		Lines:                          make([]production.TemplateLine, len(m.Lines)),
		UpdatedBy:                      m.UpdatedBy,
		CreatedAt:                      m.CreatedAt,
		UpdatedAt:                      m.UpdatedAt,
	}
	for i, l := range m.Lines {
		t.Lines[i] = production.TemplateLine{MaterialID: l.MaterialID, RequiredQuantityPerUnit: l.RequiredQuantityPerUnit}
	}
	return t
}

// ProductTemplateModelFromDomain creates a persistence model from a domain ProductTemplate
func ProductTemplateModelFromDomain(t *production.ProductTemplate) *ProductTemplateModel {
	m := &ProductTemplateModel{
		TargetMaterialID:               t.TargetMaterialID,
		EstimatedProductionTimeMinutes: t.EstimatedProductionTimeMinutes,
		UpdatedBy:                      t.UpdatedBy,
		CreatedAt:                      t.CreatedAt,
		UpdatedAt:                      t.UpdatedAt,
		Lines:                          make([]TemplateLineModel, len(t.Lines)),
	}
	for i, l := range t.Lines {
		m.Lines[i] = TemplateLineModel{
			TargetMaterialID:        t.TargetMaterialID,
			LineNo:                  i + 1,
			MaterialID:              l.MaterialID,
			RequiredQuantityPerUnit: l.RequiredQuantityPerUnit,
		}
	}
	return m
}

// TemplateLineModel is the persistence model for one template line.
type TemplateLineModel struct {
	TargetMaterialID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	LineNo                  int             `gorm:"primary_key;autoIncrement:false"`
	MaterialID              uuid.UUID       `gorm:"type:uuid;not null"`
	RequiredQuantityPerUnit decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (TemplateLineModel) TableName() string {
	return "product_template_lines"
}
