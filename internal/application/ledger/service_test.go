package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/testutil"
	"github.com/matflow/backend/internal/testutil/apptest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLedgerService(t *testing.T, opts ledger.Options) (*ledger.Service, *apptest.Stack) {
	t.Helper()
	s := apptest.New(t, nil)
	return ledger.NewService(s.Runner, s.Materials, s.Entries, opts, zap.NewNop()), s
}

func adjust(qty string) ledger.AdjustStockRequest {
	return ledger.AdjustStockRequest{Quantity: decimal.RequireFromString(qty), Reason: "count correction"}
}

func TestService_CreateMaterial(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})

	resp, err := svc.CreateMaterial(ctx, ledger.CreateMaterialRequest{
		Name:         "  Copper  ",
		Kind:         string(material.KindRawMaterial),
		Unit:         "kg",
		MinimumStock: decimal.NewFromInt(5),
	}, testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, "Copper", resp.Name)
	assert.True(t, resp.Quantity.IsZero())
	assert.Equal(t, []string{material.EventTypeMaterialCreated}, stack.Publisher.Types())

	_, err = svc.CreateMaterial(ctx, ledger.CreateMaterialRequest{Name: "Bad", Kind: "PLASTIC", Unit: "kg"}, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestService_CreditAndDebit(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})
	m := stack.Material(t, "Resin", material.KindRawMaterial, "0")

	entry, err := svc.Credit(ctx, m.ID, adjust("10"), testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, "CREDIT", entry.Direction)
	assert.True(t, entry.BalanceBefore.IsZero())
	assert.True(t, decimal.NewFromInt(10).Equal(entry.BalanceAfter))

	entry, err = svc.Debit(ctx, m.ID, adjust("4"), testutil.TestActorID())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(6).Equal(entry.BalanceAfter))
	assert.True(t, decimal.NewFromInt(6).Equal(stack.Quantity(t, m.ID)))

	history, total, err := svc.History(ctx, m.ID, ledger.EntryListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, history, 2)
	assert.Equal(t, string(material.SourceManualAdjustment), history[0].SourceType)

	assert.Equal(t, []string{material.EventTypeStockCredited, material.EventTypeStockDebited}, stack.Publisher.Types())
}

func TestService_Debit_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})
	m := stack.Material(t, "Resin", material.KindRawMaterial, "3")

	_, err := svc.Debit(ctx, m.ID, adjust("5"), testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.True(t, decimal.NewFromInt(3).Equal(stack.Quantity(t, m.ID)))

	_, total, err := svc.History(ctx, m.ID, ledger.EntryListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "only the opening credit is recorded")
	assert.Empty(t, stack.Publisher.Events())
}

func TestService_Debit_AllowNegativeStock(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{AllowNegativeStock: true})
	m := stack.Material(t, "Resin", material.KindRawMaterial, "3")

	entry, err := svc.Debit(ctx, m.ID, adjust("5"), testutil.TestActorID())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-2).Equal(entry.BalanceAfter))
	assert.True(t, decimal.NewFromInt(-2).Equal(stack.Quantity(t, m.ID)))
}

func TestService_Adjust_Validation(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})
	m := stack.Material(t, "Resin", material.KindRawMaterial, "3")

	tests := []struct {
		name    string
		id      uuid.UUID
		req     ledger.AdjustStockRequest
		actor   uuid.UUID
		wantErr error
	}{
		{"zero quantity", m.ID, adjust("0"), testutil.TestActorID(), shared.ErrInvalidQuantity},
		{"negative quantity", m.ID, adjust("-1"), testutil.TestActorID(), shared.ErrInvalidQuantity},
		{"finer than stored scale", m.ID, adjust("0.00001"), testutil.TestActorID(), shared.ErrInvalidQuantity},
		{"missing actor", m.ID, adjust("1"), uuid.Nil, shared.ErrValidationFailed},
		{"unknown material", uuid.New(), adjust("1"), testutil.TestActorID(), shared.ErrMaterialNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Credit(ctx, tt.id, tt.req, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.True(t, decimal.NewFromInt(3).Equal(stack.Quantity(t, m.ID)))
}

func TestService_UpdateMaterial(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})
	m := stack.Material(t, "Resin", material.KindRawMaterial, "3")

	name := "Epoxy resin"
	minimum := decimal.NewFromInt(10)
	resp, err := svc.UpdateMaterial(ctx, m.ID, ledger.UpdateMaterialRequest{Name: &name, MinimumStock: &minimum})
	require.NoError(t, err)
	assert.Equal(t, "Epoxy resin", resp.Name)
	assert.True(t, decimal.NewFromInt(3).Equal(resp.Quantity))

	low, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, m.ID, low[0].ID)

	kind := string(material.KindRecyclable)
	_, err = svc.UpdateMaterial(ctx, m.ID, ledger.UpdateMaterialRequest{Kind: &kind})
	assert.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestService_Queries(t *testing.T) {
	ctx := context.Background()
	svc, stack := newLedgerService(t, ledger.Options{})
	steel := stack.Material(t, "Steel", material.KindRawMaterial, "10")
	stack.Material(t, "Scrap", material.KindRecyclable, "5")

	avail, err := svc.GetAvailable(ctx, steel.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(avail.Available))

	_, err = svc.GetMaterial(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrMaterialNotFound)

	items, total, err := svc.ListMaterials(ctx, ledger.MaterialListFilter{Kind: string(material.KindRecyclable)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Scrap", items[0].Name)

	val, err := svc.Valuation(ctx)
	require.NoError(t, err)
	require.Len(t, val.Kinds, 2)
	assert.Equal(t, string(material.KindRawMaterial), val.Kinds[0].Kind)
	// every stack material costs 2 per unit
	assert.True(t, decimal.NewFromInt(30).Equal(val.TotalValue))

	entries, err := svc.EntriesForSource(ctx, material.SourceManualAdjustment, steel.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "opening stock", entries[0].Reason)
}
