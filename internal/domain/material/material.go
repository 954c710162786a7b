package material

import (
	"strings"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Material is the aggregate root for a tracked stock position.
// Quantity only changes through Credit and Debit, which the ledger pairs
// with a LedgerEntry.
type Material struct {
	shared.BaseAggregateRoot
	Name         string
	Color        string
	Kind         Kind
	Unit         string
	Quantity     decimal.Decimal
	MinimumStock decimal.Decimal
	UnitCost     decimal.Decimal
	IsActive     bool
	CreatedBy    *uuid.UUID
}

// NewMaterial creates a new active material with zero stock
func NewMaterial(spec Spec, createdBy uuid.UUID) (*Material, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	m := &Material{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              strings.TrimSpace(spec.Name),
		Color:             strings.TrimSpace(spec.Color),
		Kind:              spec.Kind,
		Unit:              strings.TrimSpace(spec.Unit),
		Quantity:          decimal.Zero,
		MinimumStock:      spec.MinimumStock,
		UnitCost:          spec.UnitCost,
		IsActive:          true,
	}
	if createdBy != uuid.Nil {
		m.CreatedBy = &createdBy
	}

	m.AddDomainEvent(NewMaterialCreatedEvent(m, createdBy))
	return m, nil
}

// Credit increases the quantity on hand and returns the balance before the change
func (m *Material) Credit(qty decimal.Decimal) (decimal.Decimal, error) {
	if err := shared.RequirePositive("credit quantity", qty); err != nil {
		return decimal.Zero, err
	}
	before := m.Quantity
	m.Quantity = m.Quantity.Add(qty)
	m.IncrementVersion()
	return before, nil
}

// Debit decreases the quantity on hand and returns the balance before the change.
// Without allowNegative the debit fails with INSUFFICIENT_STOCK when qty exceeds the
// quantity on hand.
func (m *Material) Debit(qty decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	if err := shared.RequirePositive("debit quantity", qty); err != nil {
		return decimal.Zero, err
	}
	if !allowNegative && qty.GreaterThan(m.Quantity) {
		return decimal.Zero, shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"insufficient stock for %s: available %s, requested %s", m.Name, m.Quantity.String(), qty.String())
	}
	before := m.Quantity
	m.Quantity = m.Quantity.Sub(qty)
	m.IncrementVersion()
	return before, nil
}

// HasAvailable reports whether at least qty is on hand
func (m *Material) HasAvailable(qty decimal.Decimal) bool {
	return m.Quantity.GreaterThanOrEqual(qty)
}

// IsBelowMinimum reports whether a configured minimum stock level is not met
func (m *Material) IsBelowMinimum() bool {
	return m.MinimumStock.IsPositive() && m.Quantity.LessThan(m.MinimumStock)
}

// Update changes the descriptive attributes. The kind cannot change.
func (m *Material) Update(u Update) error {
	if u.Kind != nil && *u.Kind != m.Kind {
		return shared.NewDomainErrorf(shared.CodeValidationFailed,
			"material kind is immutable: %s cannot become %s", m.Kind, *u.Kind)
	}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return shared.NewDomainError(shared.CodeValidationFailed, "material name cannot be empty")
		}
		m.Name = name
	}
	if u.Color != nil {
		m.Color = strings.TrimSpace(*u.Color)
	}
	if u.Unit != nil {
		unit := strings.TrimSpace(*u.Unit)
		if unit == "" {
			return shared.NewDomainError(shared.CodeValidationFailed, "unit of measure cannot be empty")
		}
		m.Unit = unit
	}
	if u.MinimumStock != nil {
		if err := shared.RequireNonNegative("minimum stock", *u.MinimumStock); err != nil {
			return err
		}
		m.MinimumStock = *u.MinimumStock
	}
	if u.UnitCost != nil {
		if err := shared.RequireNonNegative("unit cost", *u.UnitCost); err != nil {
			return err
		}
		m.UnitCost = *u.UnitCost
	}
	if u.IsActive != nil {
		m.IsActive = *u.IsActive
	}
	m.IncrementVersion()
	return nil
}

// Update carries optional attribute changes for a material
type Update struct {
	Name         *string
	Color        *string
	Kind         *Kind
	Unit         *string
	MinimumStock *decimal.Decimal
	UnitCost     *decimal.Decimal
	IsActive     *bool
}
