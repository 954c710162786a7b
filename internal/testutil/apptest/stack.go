// Package apptest wires the application services' collaborators over an
// in-memory SQLite database for service-level tests.
package apptest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/infrastructure/persistence"
	"github.com/matflow/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stack holds real repositories, a transaction scope and an AtomicRunner
// sharing one database.
type Stack struct {
	DB           *gorm.DB
	Runner       *txn.AtomicRunner
	Publisher    *testutil.RecordingPublisher
	Materials    *persistence.GormMaterialRepository
	Entries      *persistence.GormLedgerEntryRepository
	Acquisitions *persistence.GormAcquisitionRepository
	Processed    *persistence.GormProcessedMaterialRepository
	Plans        *persistence.GormPlanRepository
	Templates    *persistence.GormTemplateRepository
}

// New builds a Stack on a fresh SQLite database. locker may be nil.
func New(t testing.TB, locker txn.MaterialLocker) *Stack {
	t.Helper()
	return NewOnDB(testutil.NewSQLiteDB(t), locker)
}

// NewOnDB builds a Stack on an existing, migrated database
func NewOnDB(db *gorm.DB, locker txn.MaterialLocker) *Stack {
	publisher := testutil.NewRecordingPublisher()

	runner := txn.NewAtomicRunner(persistence.NewGormTransactionScope(db), locker, zap.NewNop())
	runner.SetEventPublisher(publisher)

	return &Stack{
		DB:           db,
		Runner:       runner,
		Publisher:    publisher,
		Materials:    persistence.NewGormMaterialRepository(db),
		Entries:      persistence.NewGormLedgerEntryRepository(db),
		Acquisitions: persistence.NewGormAcquisitionRepository(db),
		Processed:    persistence.NewGormProcessedMaterialRepository(db),
		Plans:        persistence.NewGormPlanRepository(db),
		Templates:    persistence.NewGormTemplateRepository(db),
	}
}

// Material registers a material and credits it with stock when stock is positive
func (s *Stack) Material(t testing.TB, name string, kind material.Kind, stock string) *material.Material {
	t.Helper()
	ctx := context.Background()
	qty := decimal.RequireFromString(stock)

	var created *material.Material
	err := s.Runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		posting := ledger.NewPosting(u)
		m, err := posting.CreateMaterial(ctx, material.Spec{
			Name:     name,
			Kind:     kind,
			Unit:     "kg",
			UnitCost: decimal.NewFromInt(2),
		}, testutil.TestActorID())
		if err != nil {
			return err
		}
		if qty.IsPositive() {
			if _, err := posting.Credit(ctx, m.ID, qty, material.Provenance{
				SourceType: material.SourceManualAdjustment,
				SourceID:   m.ID,
				ActorID:    testutil.TestActorID(),
				Reason:     "opening stock",
			}); err != nil {
				return err
			}
		}
		created = m
		return nil
	})
	require.NoError(t, err)
	s.Publisher.Reset()
	return created
}

// Quantity returns the stored quantity on hand of a material
func (s *Stack) Quantity(t testing.TB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	m, err := s.Materials.FindByID(context.Background(), id)
	require.NoError(t, err)
	return m.Quantity
}

// EntriesFor returns the ledger entries written by one source document
func (s *Stack) EntriesFor(t testing.TB, sourceType material.SourceType, sourceID uuid.UUID) []material.LedgerEntry {
	t.Helper()
	entries, err := s.Entries.FindBySource(context.Background(), sourceType, sourceID)
	require.NoError(t, err)
	return entries
}
