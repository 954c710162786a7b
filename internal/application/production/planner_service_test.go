package production_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	appprod "github.com/matflow/backend/internal/application/production"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/matflow/backend/internal/testutil"
	"github.com/matflow/backend/internal/testutil/apptest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type failingTemplates struct {
	production.TemplateRepository
}

func (failingTemplates) Save(context.Context, *production.ProductTemplate) error {
	return errors.New("template store unavailable")
}

type plannerFixture struct {
	stack  *apptest.Stack
	steel  *material.Material
	bolts  *material.Material
	target *material.Material
}

func newPlannerFixture(t *testing.T, steelStock, boltStock string) *plannerFixture {
	t.Helper()
	s := apptest.New(t, nil)
	return &plannerFixture{
		stack:  s,
		steel:  s.Material(t, "Steel", material.KindRawMaterial, steelStock),
		bolts:  s.Material(t, "Bolts", material.KindRawMaterial, boltStock),
		target: s.Material(t, "Bracket", material.KindFinishedProduct, "0"),
	}
}

func (f *plannerFixture) planner(opts appprod.PlannerOptions) *appprod.PlannerService {
	s := f.stack
	return appprod.NewPlannerService(s.Runner, s.Plans, s.Templates, s.Materials, opts, zap.NewNop())
}

// request asks for 50 brackets at 2 steel and 4 bolts each
func (f *plannerFixture) request() appprod.CreatePlanRequest {
	return appprod.CreatePlanRequest{
		Name:              "Bracket batch",
		Variant:           string(production.VariantFromRawMaterials),
		TargetMaterialID:  &f.target.ID,
		QuantityToProduce: dec("50"),
		RequiredMaterials: []appprod.RequiredMaterialRequest{
			{MaterialID: f.steel.ID, RequiredQuantityPerUnit: dec("2")},
			{MaterialID: f.bolts.ID, RequiredQuantityPerUnit: dec("4")},
		},
		EstimatedProductionTimeMinutes: 120,
	}
}

func TestPlannerService_CreatePlan_Availability(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "10", "500")
	svc := f.planner(appprod.PlannerOptions{})

	resp, err := svc.CreatePlan(ctx, f.request(), testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusDraft), resp.Status)
	assert.False(t, resp.CanProduce)
	require.NotNil(t, resp.Availability)
	require.Len(t, resp.Availability.Lines, 2)

	steel := resp.Availability.Lines[0]
	assert.Equal(t, f.steel.ID, steel.MaterialID)
	assert.Equal(t, "Short(90)", steel.Status)
	assert.True(t, dec("90").Equal(steel.Shortage))
	assert.Equal(t, "Sufficient", resp.Availability.Lines[1].Status)

	require.NotNil(t, resp.TemplateDrift)
	assert.True(t, *resp.TemplateDrift, "no template yet counts as drift")
	assert.Nil(t, resp.TemplateSaved, "saving was not requested")

	// creating a plan never moves stock
	assert.True(t, dec("10").Equal(f.stack.Quantity(t, f.steel.ID)))
	assert.Contains(t, f.stack.Publisher.Types(), production.EventTypePlanCreated)

	stored, err := svc.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Availability)
	assert.False(t, stored.Availability.CanProduce)
}

func TestPlannerService_CreatePlan_NewTarget(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{})

	req := f.request()
	req.TargetMaterialID = nil
	req.NewTarget = &ledger.NewMaterialRequest{Name: "Shelf", Unit: "pcs"}
	resp, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
	require.NoError(t, err)
	assert.True(t, resp.CanProduce)

	target, err := f.stack.Materials.FindByID(ctx, resp.TargetMaterialID)
	require.NoError(t, err)
	assert.Equal(t, "Shelf", target.Name)
	assert.Equal(t, material.KindFinishedProduct, target.Kind)
	assert.True(t, target.Quantity.IsZero())
}

func TestPlannerService_CreatePlan_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{})

	tests := []struct {
		name    string
		mutate  func(r *appprod.CreatePlanRequest)
		wantErr error
	}{
		{"unknown variant", func(r *appprod.CreatePlanRequest) { r.Variant = "FROM_THIN_AIR" }, shared.ErrValidationFailed},
		{"no target", func(r *appprod.CreatePlanRequest) { r.TargetMaterialID = nil }, shared.ErrValidationFailed},
		{"zero quantity", func(r *appprod.CreatePlanRequest) { r.QuantityToProduce = decimal.Zero }, shared.ErrInvalidQuantity},
		{"duplicate input", func(r *appprod.CreatePlanRequest) {
			r.RequiredMaterials = append(r.RequiredMaterials, appprod.RequiredMaterialRequest{MaterialID: f.steel.ID, RequiredQuantityPerUnit: dec("1")})
		}, shared.ErrDuplicateMaterial},
		{"target consumed by itself", func(r *appprod.CreatePlanRequest) {
			r.RequiredMaterials = append(r.RequiredMaterials, appprod.RequiredMaterialRequest{MaterialID: f.target.ID, RequiredQuantityPerUnit: dec("1")})
		}, shared.ErrValidationFailed},
		{"unknown input", func(r *appprod.CreatePlanRequest) {
			r.RequiredMaterials = append(r.RequiredMaterials, appprod.RequiredMaterialRequest{MaterialID: uuid.New(), RequiredQuantityPerUnit: dec("1")})
		}, shared.ErrMaterialNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request()
			tt.mutate(&req)
			_, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, total, err := svc.List(ctx, appprod.PlanListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestPlannerService_CreatePlan_MaterialKinds(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{})
	hinge := f.stack.Material(t, "Hinge", material.KindFinishedProduct, "40")
	scrap := f.stack.Material(t, "Steel scrap", material.KindRecyclable, "500")
	rod := f.stack.Material(t, "Steel rod", material.KindRawMaterial, "0")
	bin := f.stack.Material(t, "Scrap bin", material.KindRecyclable, "0")

	line := func(m *material.Material) []appprod.RequiredMaterialRequest {
		return []appprod.RequiredMaterialRequest{{MaterialID: m.ID, RequiredQuantityPerUnit: dec("2")}}
	}
	tests := []struct {
		name    string
		variant production.Variant
		target  *material.Material
		inputs  []appprod.RequiredMaterialRequest
		wantErr error
	}{
		{"finished product consumed", production.VariantFromRawMaterials, f.target, line(hinge), shared.ErrValidationFailed},
		{"recyclable consumed by raw plan", production.VariantFromRawMaterials, f.target, line(scrap), shared.ErrValidationFailed},
		{"finished product consumed by recyclable plan", production.VariantFromRecyclables, rod, line(hinge), shared.ErrValidationFailed},
		{"raw material consumed by recyclable plan", production.VariantFromRecyclables, rod, line(f.steel), shared.ErrValidationFailed},
		{"raw material as finished target", production.VariantFromRawMaterials, rod, line(f.steel), shared.ErrValidationFailed},
		{"recyclable as raw target", production.VariantFromRecyclables, bin, line(scrap), shared.ErrValidationFailed},
		{"recyclables into raw material", production.VariantFromRecyclables, rod, line(scrap), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request()
			req.Variant = string(tt.variant)
			req.TargetMaterialID = &tt.target.ID
			req.RequiredMaterials = tt.inputs

			resp, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(production.StatusDraft), resp.Status)
			assert.True(t, resp.CanProduce)
		})
	}

	_, total, err := svc.List(ctx, appprod.PlanListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestPlannerService_TemplateOnDrift(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{SaveTemplateOnDrift: true})

	req := f.request()
	req.SaveAsTemplate = true
	first, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
	require.NoError(t, err)
	require.NotNil(t, first.TemplateSaved)
	assert.True(t, *first.TemplateSaved)

	lookup, err := svc.LoadTemplate(ctx, f.target.ID)
	require.NoError(t, err)
	require.True(t, lookup.Found)
	assert.Len(t, lookup.Template.Lines, 2)
	assert.Equal(t, 120, lookup.Template.EstimatedProductionTimeMinutes)

	second, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
	require.NoError(t, err)
	require.NotNil(t, second.TemplateDrift)
	assert.False(t, *second.TemplateDrift)
	assert.Nil(t, second.TemplateSaved, "nothing to save without drift")

	t.Run("drift check ignores line order", func(t *testing.T) {
		drift, err := svc.CheckDrift(ctx, f.target.ID, appprod.DriftRequest{
			Lines: []appprod.TemplateLineRequest{
				{MaterialID: f.bolts.ID, RequiredQuantityPerUnit: dec("4.0")},
				{MaterialID: f.steel.ID, RequiredQuantityPerUnit: dec("2")},
			},
			EstimatedProductionTimeMinutes: 120,
		})
		require.NoError(t, err)
		assert.True(t, drift.TemplateFound)
		assert.False(t, drift.Drift)
	})

	t.Run("changed estimate drifts and overwrites", func(t *testing.T) {
		changed := req
		changed.EstimatedProductionTimeMinutes = 90
		third, err := svc.CreatePlan(ctx, changed, testutil.TestActorID())
		require.NoError(t, err)
		assert.True(t, *third.TemplateDrift)
		assert.True(t, *third.TemplateSaved)

		lookup, err := svc.LoadTemplate(ctx, f.target.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, lookup.Template.EstimatedProductionTimeMinutes)
	})
}

func TestPlannerService_TemplateSaveDisabled(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{SaveTemplateOnDrift: false})

	req := f.request()
	req.SaveAsTemplate = true
	resp, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
	require.NoError(t, err)
	require.NotNil(t, resp.TemplateSaved)
	assert.False(t, *resp.TemplateSaved)

	lookup, err := svc.LoadTemplate(ctx, f.target.ID)
	require.NoError(t, err)
	assert.False(t, lookup.Found)
	assert.Nil(t, lookup.Template)

	t.Run("explicit save still works", func(t *testing.T) {
		tmpl, err := svc.SaveTemplate(ctx, f.target.ID, appprod.SaveTemplateRequest{PlanID: resp.ID}, testutil.TestActorID())
		require.NoError(t, err)
		assert.Len(t, tmpl.Lines, 2)

		_, err = svc.SaveTemplate(ctx, f.steel.ID, appprod.SaveTemplateRequest{PlanID: resp.ID}, testutil.TestActorID())
		assert.ErrorIs(t, err, shared.ErrValidationFailed)

		items, total, err := svc.ListTemplates(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, f.target.ID, items[0].TargetMaterialID)
	})
}

func TestPlannerService_TemplateSaveIsBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	s := f.stack
	svc := appprod.NewPlannerService(s.Runner, s.Plans, failingTemplates{s.Templates}, s.Materials,
		appprod.PlannerOptions{SaveTemplateOnDrift: true}, zap.NewNop())

	req := f.request()
	req.SaveAsTemplate = true
	resp, err := svc.CreatePlan(ctx, req, testutil.TestActorID())
	require.NoError(t, err, "a failed template write never fails the plan")
	require.NotNil(t, resp.TemplateSaved)
	assert.False(t, *resp.TemplateSaved)

	stored, err := svc.GetByID(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, stored.ID)
}

func TestPlannerService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "10", "500")
	svc := f.planner(appprod.PlannerOptions{})
	ledgerSvc := ledger.NewService(f.stack.Runner, f.stack.Materials, f.stack.Entries, ledger.Options{}, zap.NewNop())

	plan, err := svc.CreatePlan(ctx, f.request(), testutil.TestActorID())
	require.NoError(t, err)

	scheduled, err := svc.Schedule(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusPlanned), scheduled.Status)

	_, err = svc.Schedule(ctx, plan.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = svc.Start(ctx, plan.ID, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	stored, err := svc.GetByID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusPlanned), stored.Status)

	_, err = ledgerSvc.Credit(ctx, f.steel.ID, ledger.AdjustStockRequest{Quantity: dec("90"), Reason: "delivery"}, testutil.TestActorID())
	require.NoError(t, err)

	checked, err := svc.CheckAvailability(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, checked.Availability.CanProduce)

	started, err := svc.Start(ctx, plan.ID, testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusInProgress), started.Status)
	assert.NotNil(t, started.StartedAt)
	assert.True(t, dec("100").Equal(f.stack.Quantity(t, f.steel.ID)), "starting does not reserve or debit")

	cancelled, err := svc.Cancel(ctx, plan.ID, testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, string(production.StatusCancelled), cancelled.Status)

	_, err = svc.Cancel(ctx, plan.ID, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	list, total, err := svc.List(ctx, appprod.PlanListFilter{Status: string(production.StatusCancelled)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, plan.ID, list[0].ID)
}

func TestPlannerService_UpdatePlan(t *testing.T) {
	ctx := context.Background()
	f := newPlannerFixture(t, "100", "200")
	svc := f.planner(appprod.PlannerOptions{})

	plan, err := svc.CreatePlan(ctx, f.request(), testutil.TestActorID())
	require.NoError(t, err)

	updated, err := svc.UpdatePlan(ctx, plan.ID, appprod.UpdatePlanRequest{
		Name:              "Bracket batch, steel only",
		QuantityToProduce: dec("60"),
		RequiredMaterials: []appprod.RequiredMaterialRequest{{MaterialID: f.steel.ID, RequiredQuantityPerUnit: dec("2")}},
	}, testutil.TestActorID())
	require.NoError(t, err)
	assert.Equal(t, "Bracket batch, steel only", updated.Name)
	require.Len(t, updated.RequiredMaterials, 1)
	assert.False(t, updated.CanProduce, "120 steel needed, 100 on hand")

	_, err = svc.Cancel(ctx, plan.ID, testutil.TestActorID())
	require.NoError(t, err)
	_, err = svc.UpdatePlan(ctx, plan.ID, appprod.UpdatePlanRequest{
		Name:              "too late",
		QuantityToProduce: dec("1"),
		RequiredMaterials: []appprod.RequiredMaterialRequest{{MaterialID: f.steel.ID, RequiredQuantityPerUnit: dec("1")}},
	}, testutil.TestActorID())
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)
}
