package persistence

import (
	"context"
	"testing"

	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewSQLiteDB(t)
	scope := NewGormTransactionScope(db)
	materials := NewGormMaterialRepository(db)

	t.Run("commits every repository write", func(t *testing.T) {
		m := newTestMaterial(t, "Committed", material.KindRawMaterial, 0)
		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			if err := repos.Materials().Create(ctx, m); err != nil {
				return err
			}
			qty := decimal.NewFromInt(7)
			before, err := m.Credit(qty)
			if err != nil {
				return err
			}
			if err := repos.Materials().SaveWithLock(ctx, m); err != nil {
				return err
			}
			return repos.Entries().Create(ctx, material.NewLedgerEntry(m, material.DirectionCredit, qty, before,
				material.Provenance{SourceType: material.SourceManualAdjustment, ActorID: testutil.TestActorID()}))
		})
		require.NoError(t, err)

		found, err := materials.FindByID(ctx, m.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(7).Equal(found.Quantity))

		entries, total, err := NewGormLedgerEntryRepository(db).FindByMaterial(ctx, m.ID, material.EntryFilter{Filter: shared.Filter{Page: 1}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].BalanceBefore.IsZero())
	})

	t.Run("rolls back when the work fails", func(t *testing.T) {
		m := newTestMaterial(t, "Rolled back", material.KindRawMaterial, 0)
		err := scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
			if err := repos.Materials().Create(ctx, m); err != nil {
				return err
			}
			return shared.NewDomainError(shared.CodeInsufficientStock, "not enough")
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)

		_, err = materials.FindByID(ctx, m.ID)
		assert.ErrorIs(t, err, shared.ErrMaterialNotFound)
	})
}
