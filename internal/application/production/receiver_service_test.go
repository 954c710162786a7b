package production_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	appprod "github.com/matflow/backend/internal/application/production"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *plannerFixture) receiver(opts appprod.ReceiverOptions) *appprod.ReceiverService {
	return appprod.NewReceiverService(f.stack.Runner, f.stack.Plans, opts, zap.NewNop())
}

// startedPlan creates and starts the fixture's 50-bracket plan
func (f *plannerFixture) startedPlan(t *testing.T) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	planner := f.planner(appprod.PlannerOptions{})
	plan, err := planner.CreatePlan(ctx, f.request(), testutil.TestActorID())
	require.NoError(t, err)
	_, err = planner.Start(ctx, plan.ID, testutil.TestActorID())
	require.NoError(t, err)
	f.stack.Publisher.Reset()
	return plan.ID
}

func TestReceiverService_Complete_ScalesByActualQuantity(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	planID := f.startedPlan(t)
	svc := f.receiver(appprod.ReceiverOptions{})

	minutes := 110
	resp, err := svc.Complete(ctx, planID, appprod.CompletePlanRequest{
		ActualQuantityProduced:      dec("48"),
		ActualProductionTimeMinutes: &minutes,
	}, testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusCompleted), resp.Status)
	require.NotNil(t, resp.ActualQuantityProduced)
	assert.True(t, dec("48").Equal(*resp.ActualQuantityProduced))
	assert.Equal(t, &minutes, resp.ActualProductionTimeMinutes)

	// 48 x 2 steel and 48 x 4 bolts, not the planned 50
	assert.True(t, dec("4").Equal(f.stack.Quantity(t, f.steel.ID)))
	assert.True(t, dec("8").Equal(f.stack.Quantity(t, f.bolts.ID)))
	assert.True(t, dec("48").Equal(f.stack.Quantity(t, f.target.ID)))

	consumed := f.stack.EntriesFor(t, material.SourceProductionConsumption, planID)
	require.Len(t, consumed, 2)
	for _, e := range consumed {
		assert.Equal(t, material.DirectionDebit, e.Direction)
		assert.NotNil(t, e.SourceLineID)
	}
	output := f.stack.EntriesFor(t, material.SourceProductionOutput, planID)
	require.Len(t, output, 1)
	assert.Equal(t, f.target.ID, output[0].MaterialID)

	require.Len(t, resp.ProducedOutputs, 1)
	assert.Equal(t, f.target.ID, resp.ProducedOutputs[0].MaterialID)

	types := f.stack.Publisher.Types()
	assert.Contains(t, types, production.EventTypePlanCompleted)
	assert.Contains(t, types, material.EventTypeStockDebited)

	_, err = svc.Complete(ctx, planID, appprod.CompletePlanRequest{ActualQuantityProduced: dec("1")}, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
	assert.True(t, dec("48").Equal(f.stack.Quantity(t, f.target.ID)))
}

func TestReceiverService_Complete_InsufficientStockChangesNothing(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	planID := f.startedPlan(t)
	svc := f.receiver(appprod.ReceiverOptions{})

	// stock drained after the plan started
	ledgerSvc := ledger.NewService(f.stack.Runner, f.stack.Materials, f.stack.Entries, ledger.Options{}, zap.NewNop())
	_, err := ledgerSvc.Debit(ctx, f.bolts.ID, ledger.AdjustStockRequest{Quantity: dec("150"), Reason: "spoiled"}, testutil.TestActorID())
	require.NoError(t, err)
	f.stack.Publisher.Reset()

	_, err = svc.Complete(ctx, planID, appprod.CompletePlanRequest{ActualQuantityProduced: dec("50")}, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	assert.True(t, dec("100").Equal(f.stack.Quantity(t, f.steel.ID)), "steel debit rolled back")
	assert.True(t, dec("50").Equal(f.stack.Quantity(t, f.bolts.ID)))
	assert.True(t, f.stack.Quantity(t, f.target.ID).IsZero())
	assert.Empty(t, f.stack.EntriesFor(t, material.SourceProductionConsumption, planID))
	assert.Empty(t, f.stack.Publisher.Events())

	plan, err := f.stack.Plans.FindByID(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, production.StatusInProgress, plan.Status)
}

func TestReceiverService_Complete_ExplicitOutputs(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit outputs replace the target credit", func(t *testing.T) {
		f := newPlannerFixture(t, "100", "200")
		planID := f.startedPlan(t)
		offcut := f.stack.Material(t, "Steel offcut", material.KindRecyclable, "0")
		svc := f.receiver(appprod.ReceiverOptions{})

		resp, err := svc.Complete(ctx, planID, appprod.CompletePlanRequest{
			ActualQuantityProduced: dec("50"),
			ProducedMaterials:      []appprod.ProducedMaterialRequest{{MaterialID: &offcut.ID, Quantity: dec("3.5")}},
		}, testutil.TestActorID())
		require.NoError(t, err)
		require.Len(t, resp.ProducedOutputs, 1)
		assert.True(t, dec("3.5").Equal(f.stack.Quantity(t, offcut.ID)))
		assert.True(t, f.stack.Quantity(t, f.target.ID).IsZero())
	})

	t.Run("target is also credited when configured", func(t *testing.T) {
		f := newPlannerFixture(t, "100", "200")
		planID := f.startedPlan(t)
		offcut := f.stack.Material(t, "Steel offcut", material.KindRecyclable, "0")
		svc := f.receiver(appprod.ReceiverOptions{CreditTargetWithExplicitOutputs: true})

		resp, err := svc.Complete(ctx, planID, appprod.CompletePlanRequest{
			ActualQuantityProduced: dec("50"),
			ProducedMaterials: []appprod.ProducedMaterialRequest{
				{MaterialID: &offcut.ID, Quantity: dec("3.5")},
				{NewMaterial: &ledger.NewMaterialRequest{Name: "Bracket seconds", Unit: "pcs"}, Quantity: dec("2")},
			},
		}, testutil.TestActorID())
		require.NoError(t, err)
		require.Len(t, resp.ProducedOutputs, 3)
		assert.True(t, dec("50").Equal(f.stack.Quantity(t, f.target.ID)))

		seconds := resp.ProducedOutputs[1]
		assert.Equal(t, "Bracket seconds", seconds.MaterialName)
		created, err := f.stack.Materials.FindByID(ctx, seconds.MaterialID)
		require.NoError(t, err)
		assert.Equal(t, material.KindFinishedProduct, created.Kind)
		assert.True(t, dec("2").Equal(created.Quantity))
	})

	t.Run("duplicate outputs are rejected", func(t *testing.T) {
		f := newPlannerFixture(t, "100", "200")
		planID := f.startedPlan(t)
		svc := f.receiver(appprod.ReceiverOptions{})

		_, err := svc.Complete(ctx, planID, appprod.CompletePlanRequest{
			ActualQuantityProduced: dec("50"),
			ProducedMaterials: []appprod.ProducedMaterialRequest{
				{MaterialID: &f.target.ID, Quantity: dec("25")},
				{MaterialID: &f.target.ID, Quantity: dec("25")},
			},
		}, testutil.TestActorID())
		assert.ErrorIs(t, err, shared.ErrDuplicateMaterial)
	})
}

func TestReceiverService_Complete_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.receiver(appprod.ReceiverOptions{})

	planner := f.planner(appprod.PlannerOptions{})
	draft, err := planner.CreatePlan(ctx, f.request(), testutil.TestActorID())
	require.NoError(t, err)
	planID := f.startedPlan(t)

	tests := []struct {
		name    string
		id      uuid.UUID
		qty     string
		actor   uuid.UUID
		wantErr error
	}{
		{"draft plan", draft.ID, "10", testutil.TestActorID(), shared.ErrInvalidTransition},
		{"zero actual quantity", planID, "0", testutil.TestActorID(), shared.ErrInvalidQuantity},
		{"unknown plan", uuid.New(), "10", testutil.TestActorID(), shared.ErrNotFound},
		{"missing actor", planID, "10", uuid.Nil, shared.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Complete(ctx, tt.id, appprod.CompletePlanRequest{ActualQuantityProduced: dec(tt.qty)}, tt.actor)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.True(t, dec("100").Equal(f.stack.Quantity(t, f.steel.ID)))
}

func TestReceiverService_Complete_Concurrent(t *testing.T) {
	ctx := context.Background()
	// enough steel and bolts for exactly one 50-bracket plan
	f := newPlannerFixture(t, "100", "200")
	first := f.startedPlan(t)
	second := f.startedPlan(t)
	svc := f.receiver(appprod.ReceiverOptions{})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{first, second} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = svc.Complete(ctx, id, appprod.CompletePlanRequest{ActualQuantityProduced: dec("50")}, testutil.TestActorID())
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	}
	assert.Equal(t, 1, succeeded)
	assert.True(t, f.stack.Quantity(t, f.steel.ID).IsZero())
	assert.True(t, f.stack.Quantity(t, f.bolts.ID).IsZero())
	assert.True(t, dec("50").Equal(f.stack.Quantity(t, f.target.ID)))
}
