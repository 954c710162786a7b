package material

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction says whether an entry added or removed stock
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// SourceType identifies the operation that moved stock
type SourceType string

const (
	// SourceAcquisitionReceipt is stock credited when an acquisition is received
	SourceAcquisitionReceipt SourceType = "ACQUISITION_RECEIPT"
	// SourceRecyclableProcessing is raw material credited by processing recyclables
	SourceRecyclableProcessing SourceType = "RECYCLABLE_PROCESSING"
	// SourceProductionConsumption is input material debited on plan completion
	SourceProductionConsumption SourceType = "PRODUCTION_CONSUMPTION"
	// SourceProductionOutput is output credited on plan completion
	SourceProductionOutput SourceType = "PRODUCTION_OUTPUT"
	// SourceManualAdjustment is a correction made by a user
	SourceManualAdjustment SourceType = "MANUAL_ADJUSTMENT"
)

// String returns the string representation of SourceType
func (s SourceType) String() string {
	return string(s)
}

// IsValid returns true if the source type is valid
func (s SourceType) IsValid() bool {
	switch s {
	case SourceAcquisitionReceipt,
		SourceRecyclableProcessing,
		SourceProductionConsumption,
		SourceProductionOutput,
		SourceManualAdjustment:
		return true
	}
	return false
}

// Provenance is supplied by the caller of a credit or debit
type Provenance struct {
	SourceType   SourceType
	SourceID     uuid.UUID
	SourceLineID *uuid.UUID
	ActorID      uuid.UUID
	Reason       string
}

// Validate checks that the provenance names its source
func (p Provenance) Validate() error {
	if !p.SourceType.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid ledger source type: %q", p.SourceType)
	}
	if p.SourceType != SourceManualAdjustment && p.SourceID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed, "ledger source id is required")
	}
	return nil
}

// LedgerEntry is an immutable record of one stock movement.
// Corrections are made with new entries, never by editing old ones.
type LedgerEntry struct {
	shared.BaseEntity
	MaterialID    uuid.UUID
	Direction     Direction
	Quantity      decimal.Decimal // always positive; Direction gives the sign
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	SourceType    SourceType
	SourceID      uuid.UUID
	SourceLineID  *uuid.UUID
	ActorID       uuid.UUID
	Reason        string
	OccurredAt    time.Time
}

// NewLedgerEntry records a movement of qty against a material
func NewLedgerEntry(m *Material, dir Direction, qty, balanceBefore decimal.Decimal, p Provenance) *LedgerEntry {
	now := time.Now()
	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		MaterialID:    m.ID,
		Direction:     dir,
		Quantity:      qty,
		BalanceBefore: balanceBefore,
		BalanceAfter:  m.Quantity,
		SourceType:    p.SourceType,
		SourceID:      p.SourceID,
		SourceLineID:  p.SourceLineID,
		ActorID:       p.ActorID,
		Reason:        p.Reason,
		OccurredAt:    now,
	}
}

// SignedQuantity returns the quantity with credits positive and debits negative
func (e *LedgerEntry) SignedQuantity() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Quantity.Neg()
	}
	return e.Quantity
}
