package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Posting is the ledger bound to one atomic unit. Every quantity change it
// makes is paired with a ledger entry in the same transaction, and each
// material is re-read under lock and saved with a version check so that
// repeated postings against one material within a unit stay consistent.
type Posting struct {
	unit *txn.Unit
}

// NewPosting binds the ledger to a unit
func NewPosting(u *txn.Unit) *Posting {
	return &Posting{unit: u}
}

// CreateMaterial registers a new material with zero stock
func (p *Posting) CreateMaterial(ctx context.Context, spec material.Spec, actorID uuid.UUID) (*material.Material, error) {
	m, err := material.NewMaterial(spec, actorID)
	if err != nil {
		return nil, err
	}
	if err := p.unit.Repos.Materials().Create(ctx, m); err != nil {
		return nil, err
	}
	p.unit.Collect(m)
	return m, nil
}

// Resolve returns the referenced material, creating it first for a New
// reference. defaultKind applies when the spec names no kind.
func (p *Posting) Resolve(ctx context.Context, ref material.Ref, defaultKind material.Kind, actorID uuid.UUID) (*material.Material, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if spec, ok := ref.Spec(); ok {
		return p.CreateMaterial(ctx, spec.WithDefaultKind(defaultKind), actorID)
	}
	return p.unit.Repos.Materials().FindByID(ctx, ref.ID())
}

// Available returns the quantity on hand as seen by this unit
func (p *Posting) Available(ctx context.Context, materialID uuid.UUID) (decimal.Decimal, error) {
	m, err := p.unit.Repos.Materials().FindByIDForUpdate(ctx, materialID)
	if err != nil {
		return decimal.Zero, err
	}
	return m.Quantity, nil
}

// Credit adds qty to a material and records the entry
func (p *Posting) Credit(ctx context.Context, materialID uuid.UUID, qty decimal.Decimal, prov material.Provenance) (*material.LedgerEntry, error) {
	if err := shared.RequirePositive("credit quantity", qty); err != nil {
		return nil, err
	}
	if err := prov.Validate(); err != nil {
		return nil, err
	}
	m, err := p.unit.Repos.Materials().FindByIDForUpdate(ctx, materialID)
	if err != nil {
		return nil, err
	}
	before, err := m.Credit(qty)
	if err != nil {
		return nil, err
	}
	return p.record(ctx, m, material.DirectionCredit, qty, before, prov)
}

// Debit removes qty from a material and records the entry. Unless
// allowNegative is set it fails with INSUFFICIENT_STOCK and changes nothing
// when qty exceeds the quantity on hand.
func (p *Posting) Debit(ctx context.Context, materialID uuid.UUID, qty decimal.Decimal, prov material.Provenance, allowNegative bool) (*material.LedgerEntry, error) {
	if err := shared.RequirePositive("debit quantity", qty); err != nil {
		return nil, err
	}
	if err := prov.Validate(); err != nil {
		return nil, err
	}
	m, err := p.unit.Repos.Materials().FindByIDForUpdate(ctx, materialID)
	if err != nil {
		return nil, err
	}
	before, err := m.Debit(qty, allowNegative)
	if err != nil {
		return nil, err
	}
	return p.record(ctx, m, material.DirectionDebit, qty, before, prov)
}

func (p *Posting) record(ctx context.Context, m *material.Material, dir material.Direction, qty, before decimal.Decimal, prov material.Provenance) (*material.LedgerEntry, error) {
	if err := p.unit.Repos.Materials().SaveWithLock(ctx, m); err != nil {
		return nil, err
	}
	entry := material.NewLedgerEntry(m, dir, qty, before, prov)
	if err := p.unit.Repos.Entries().Create(ctx, entry); err != nil {
		return nil, err
	}
	p.unit.Raise(material.NewStockMovedEvent(m, entry))
	return entry, nil
}
