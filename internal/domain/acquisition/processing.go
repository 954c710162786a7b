package acquisition

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProcessedMaterial records raw material produced from one recyclable item
type ProcessedMaterial struct {
	shared.BaseEntity
	AcquisitionID uuid.UUID
	SourceItemID  uuid.UUID
	MaterialID    uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
	ProcessedBy   uuid.UUID
	ProcessedAt   time.Time
}

// NewProcessedMaterial creates a provenance record for one processing output
func NewProcessedMaterial(acquisitionID, sourceItemID, materialID uuid.UUID, qty decimal.Decimal, unit string, processedBy uuid.UUID) *ProcessedMaterial {
	return &ProcessedMaterial{
		BaseEntity:    shared.NewBaseEntity(),
		AcquisitionID: acquisitionID,
		SourceItemID:  sourceItemID,
		MaterialID:    materialID,
		Quantity:      qty,
		Unit:          unit,
		ProcessedBy:   processedBy,
		ProcessedAt:   time.Now(),
	}
}

// ProcessingOutput is one requested output of a processing run
type ProcessingOutput struct {
	SourceItemID uuid.UUID
	Material     material.Ref
	Quantity     decimal.Decimal
	Unit         string
}

// ItemProcessing summarises how much of a recyclable item has been processed
type ItemProcessing struct {
	ItemID        uuid.UUID
	Received      decimal.Decimal
	Processed     decimal.Decimal
	OverProcessed bool
}

// Remaining is what is left of the received quantity; negative when over-processed
func (p ItemProcessing) Remaining() decimal.Decimal {
	return p.Received.Sub(p.Processed)
}

// SummarizeProcessing totals processed quantities per source item
func (a *Acquisition) SummarizeProcessing(records []ProcessedMaterial) []ItemProcessing {
	totals := make(map[uuid.UUID]decimal.Decimal, len(a.Items))
	for _, r := range records {
		totals[r.SourceItemID] = totals[r.SourceItemID].Add(r.Quantity)
	}
	summary := make([]ItemProcessing, 0, len(a.Items))
	for _, item := range a.Items {
		received := decimal.Zero
		if item.ReceivedQuantity != nil {
			received = *item.ReceivedQuantity
		}
		processed := totals[item.ID]
		summary = append(summary, ItemProcessing{
			ItemID:        item.ID,
			Received:      received,
			Processed:     processed,
			OverProcessed: processed.GreaterThan(received),
		})
	}
	return summary
}

// CheckProcessing validates a processing run against the acquisition and the
// outputs already recorded for it. With allowOverProcessing false, a run that
// takes any item's processed total past its received quantity fails with
// INVALID_QUANTITY. The returned summary reflects the totals after the run.
func (a *Acquisition) CheckProcessing(outputs []ProcessingOutput, existing []ProcessedMaterial, allowOverProcessing bool) ([]ItemProcessing, error) {
	if a.Status != StatusReadyForProcessing {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot process acquisition in %s status", a.Status)
	}
	if len(outputs) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "processing needs at least one output")
	}

	pending := make([]ProcessedMaterial, 0, len(existing)+len(outputs))
	pending = append(pending, existing...)
	for i, out := range outputs {
		if a.GetItem(out.SourceItemID) == nil {
			return nil, shared.NewDomainErrorf(shared.CodeValidationFailed,
				"output %d: source item %s does not belong to acquisition", i+1, out.SourceItemID)
		}
		if err := out.Material.Validate(); err != nil {
			return nil, fmt.Errorf("output %d: %w", i+1, err)
		}
		if err := shared.RequirePositive("processed quantity", out.Quantity); err != nil {
			return nil, fmt.Errorf("output %d: %w", i+1, err)
		}
		if strings.TrimSpace(out.Unit) == "" {
			return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "output %d: unit of measure is required", i+1)
		}
		pending = append(pending, ProcessedMaterial{SourceItemID: out.SourceItemID, Quantity: out.Quantity})
	}

	summary := a.SummarizeProcessing(pending)
	if !allowOverProcessing {
		for _, s := range summary {
			if s.OverProcessed {
				return nil, shared.NewDomainErrorf(shared.CodeInvalidQuantity,
					"processed quantity %s exceeds received quantity %s for item %s",
					s.Processed.String(), s.Received.String(), s.ItemID)
			}
		}
	}
	return summary, nil
}

// RecordProcessing marks a completed processing run on the aggregate so that
// concurrent runs on the same acquisition conflict on its version.
func (a *Acquisition) RecordProcessing(records []ProcessedMaterial, actorID uuid.UUID) {
	a.IncrementVersion()
	a.AddDomainEvent(NewRecyclablesProcessedEvent(a, records, actorID))
}
