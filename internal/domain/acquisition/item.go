package acquisition

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ItemInput describes one line of a draft acquisition
type ItemInput struct {
	Material        material.Ref
	MaterialName    string // display name of an existing material
	OrderedQuantity decimal.Decimal
	Unit            string
	UnitCost        decimal.Decimal
}

// Validate checks a line before it enters a draft
func (in ItemInput) Validate() error {
	if err := in.Material.Validate(); err != nil {
		return err
	}
	if err := shared.RequirePositive("ordered quantity", in.OrderedQuantity); err != nil {
		return err
	}
	if strings.TrimSpace(in.Unit) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "unit of measure is required")
	}
	return shared.RequireNonNegative("unit cost", in.UnitCost)
}

// Item is a line of an acquisition.
// ReceivedQuantity stays nil until the acquisition is received.
type Item struct {
	ID               uuid.UUID
	AcquisitionID    uuid.UUID
	LineNo           int
	MaterialID       *uuid.UUID
	NewMaterial      *material.Spec // pending creation for a material that does not exist yet
	MaterialName     string
	OrderedQuantity  decimal.Decimal
	ReceivedQuantity *decimal.Decimal
	Unit             string
	UnitCost         decimal.Decimal
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func newItem(acquisitionID uuid.UUID, lineNo int, in ItemInput, kind Kind) Item {
	now := time.Now()
	item := Item{
		ID:              uuid.New(),
		AcquisitionID:   acquisitionID,
		LineNo:          lineNo,
		MaterialName:    strings.TrimSpace(in.MaterialName),
		OrderedQuantity: in.OrderedQuantity,
		Unit:            strings.TrimSpace(in.Unit),
		UnitCost:        in.UnitCost,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if spec, ok := in.Material.Spec(); ok {
		spec = spec.WithDefaultKind(kind.MaterialKind())
		if spec.Unit == "" {
			spec.Unit = item.Unit
		}
		item.NewMaterial = &spec
		item.MaterialName = spec.Name
	} else {
		id := in.Material.ID()
		item.MaterialID = &id
	}
	return item
}

// Ref returns the material reference of the line
func (i *Item) Ref() material.Ref {
	if i.MaterialID != nil {
		return material.Existing(*i.MaterialID)
	}
	if i.NewMaterial != nil {
		return material.New(*i.NewMaterial)
	}
	return material.Ref{}
}

// IsReceived reports whether a received quantity has been recorded
func (i *Item) IsReceived() bool {
	return i.ReceivedQuantity != nil
}

// Delivery returns the derived delivery classification; ok is false before receipt
func (i *Item) Delivery() (Delivery, bool) {
	if i.ReceivedQuantity == nil {
		return Delivery{}, false
	}
	return Classify(i.OrderedQuantity, *i.ReceivedQuantity), true
}

// ReceivedValue is received quantity times unit cost, zero before receipt
func (i *Item) ReceivedValue() decimal.Decimal {
	if i.ReceivedQuantity == nil {
		return decimal.Zero
	}
	return i.ReceivedQuantity.Mul(i.UnitCost)
}
