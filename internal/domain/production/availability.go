package production

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/shopspring/decimal"
)

// StockSnapshot is the ledger's view of one material at evaluation time
type StockSnapshot struct {
	MaterialID uuid.UUID
	Name       string
	Unit       string
	Kind       material.Kind
	Available  decimal.Decimal
	UnitCost   decimal.Decimal
}

// LineStatusKind classifies the availability of one required material
type LineStatusKind string

const (
	LineSufficient LineStatusKind = "SUFFICIENT"
	LineShort      LineStatusKind = "SHORT"
)

// LineStatus is Sufficient, or Short by Shortage
type LineStatus struct {
	Kind     LineStatusKind
	Shortage decimal.Decimal
}

// Sufficient returns the status of a fully covered line
func Sufficient() LineStatus {
	return LineStatus{Kind: LineSufficient, Shortage: decimal.Zero}
}

// Short returns the status of a line missing the given amount
func Short(by decimal.Decimal) LineStatus {
	return LineStatus{Kind: LineShort, Shortage: by}
}

// IsShort reports whether the line lacks stock
func (s LineStatus) IsShort() bool {
	return s.Kind == LineShort
}

// String renders the status as "Sufficient" or "Short(10)"
func (s LineStatus) String() string {
	if s.IsShort() {
		return fmt.Sprintf("Short(%s)", s.Shortage.String())
	}
	return "Sufficient"
}

// EvaluateLine compares what is available against what a line needs
func EvaluateLine(available, required decimal.Decimal) LineStatus {
	if available.GreaterThanOrEqual(required) {
		return Sufficient()
	}
	return Short(required.Sub(available))
}

// LineAvailability is the evaluated state of one required material
type LineAvailability struct {
	MaterialID    uuid.UUID
	Available     decimal.Decimal
	TotalRequired decimal.Decimal
	Status        LineStatus
}

// Availability is the evaluated state of a whole plan
type Availability struct {
	Lines      []LineAvailability
	CanProduce bool
}

// ShortLines returns the lines lacking stock
func (a Availability) ShortLines() []LineAvailability {
	short := make([]LineAvailability, 0)
	for _, l := range a.Lines {
		if l.Status.IsShort() {
			short = append(short, l)
		}
	}
	return short
}
