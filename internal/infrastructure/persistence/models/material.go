package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaterialModel is the persistence model for the Material aggregate root.
type MaterialModel struct {
	AggregateModel
	Name         string          `gorm:"type:varchar(200);not null;index"`
	Color        string          `gorm:"type:varchar(50)"`
	Kind         string          `gorm:"type:varchar(30);not null;index"`
	Unit         string          `gorm:"type:varchar(20);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinimumStock decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive     bool            `gorm:"not null;default:true"`
	CreatedBy    *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MaterialModel) TableName() string {
	return "materials"
}

// ToDomain converts the persistence model to a domain Material
func (m *MaterialModel) ToDomain() *material.Material {
	return &material.Material{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Color:             m.Color,
		Kind:              material.Kind(m.Kind),
		Unit:              m.Unit,
		Quantity:          m.Quantity,
		MinimumStock:      m.MinimumStock,
		UnitCost:          m.UnitCost,
		IsActive:          m.IsActive,
		CreatedBy:         m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Material
func (m *MaterialModel) FromDomain(d *material.Material) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.Name = d.Name
	m.Color = d.Color
	m.Kind = string(d.Kind)
	m.Unit = d.Unit
	m.Quantity = d.Quantity
	m.MinimumStock = d.MinimumStock
	m.UnitCost = d.UnitCost
	m.IsActive = d.IsActive
	m.CreatedBy = d.CreatedBy
}

// MaterialModelFromDomain creates a new persistence model from a domain Material
func MaterialModelFromDomain(d *material.Material) *MaterialModel {
	m := &MaterialModel{}
	m.FromDomain(d)
	return m
}

// LedgerEntryModel is the persistence model for an immutable ledger entry.
type LedgerEntryModel struct {
	BaseModel
	MaterialID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_material_time,priority:1"`
	Direction     string          `gorm:"type:varchar(10);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceBefore decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SourceType    string          `gorm:"type:varchar(30);not null;index:idx_ledger_source,priority:1"`
	SourceID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_ledger_source,priority:2"`
	SourceLineID  *uuid.UUID      `gorm:"type:uuid"`
	ActorID       uuid.UUID       `gorm:"type:uuid;not null"`
	Reason        string          `gorm:"type:varchar(500)"`
	OccurredAt    time.Time       `gorm:"not null;index:idx_ledger_material_time,priority:2"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain LedgerEntry
func (m *LedgerEntryModel) ToDomain() *material.LedgerEntry {
	return &material.LedgerEntry{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		MaterialID:    m.MaterialID,
		Direction:     material.Direction(m.Direction),
		Quantity:      m.Quantity,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		SourceType:    material.SourceType(m.SourceType),
		SourceID:      m.SourceID,
		SourceLineID:  m.SourceLineID,
		ActorID:       m.ActorID,
		Reason:        m.Reason,
		OccurredAt:    m.OccurredAt,
	}
}

// LedgerEntryModelFromDomain creates a new persistence model from a domain LedgerEntry
func LedgerEntryModelFromDomain(e *material.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		MaterialID:    e.MaterialID,
		Direction:     string(e.Direction),
		Quantity:      e.Quantity,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		SourceType:    string(e.SourceType),
		SourceID:      e.SourceID,
		SourceLineID:  e.SourceLineID,
		ActorID:       e.ActorID,
		Reason:        e.Reason,
		OccurredAt:    e.OccurredAt,
	}
	m.FromDomainBaseEntity(e.BaseEntity)
	return m
}
