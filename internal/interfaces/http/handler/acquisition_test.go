package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	acquisitionapp "github.com/matflow/backend/internal/application/acquisition"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAcquisition(t *testing.T, api *testAPI, kind acquisition.Kind, materialID uuid.UUID, ordered string) acquisitionapp.AcquisitionResponse {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/v1/acquisitions", map[string]any{
		"title": "Weekly delivery",
		"kind":  string(kind),
		"items": []map[string]any{{"material_id": materialID, "ordered_quantity": ordered, "unit_cost": "1.2"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[acquisitionapp.AcquisitionResponse](t, w).Data
}

func TestAcquisitionAPI_DraftToReceived(t *testing.T) {
	api := newTestAPI(t)
	steel := api.stack.Material(t, "Steel", material.KindRawMaterial, "0")
	draft := createAcquisition(t, api, acquisition.KindRawMaterials, steel.ID, "100")
	assert.Equal(t, string(acquisition.StatusDraft), draft.Status)
	assert.Equal(t, api.actor, draft.CreatedBy)
	base := "/api/v1/acquisitions/" + draft.ID.String()

	w := api.do(t, http.MethodPut, base, map[string]any{
		"title": "Weekly delivery (revised)",
		"items": []map[string]any{{"material_id": steel.ID, "ordered_quantity": "120"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[acquisitionapp.AcquisitionResponse](t, w).Data
	assert.Equal(t, "Weekly delivery (revised)", updated.Title)
	require.Len(t, updated.Items, 1)
	assert.True(t, dec("120").Equal(updated.Items[0].OrderedQuantity))

	w = api.do(t, http.MethodPost, base+"/receive", map[string]any{
		"items": []map[string]any{{"item_id": updated.Items[0].ID, "received_quantity": "130"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := decode[acquisitionapp.AcquisitionResponse](t, w).Data
	assert.Equal(t, string(acquisition.StatusReceived), received.Status)
	assert.Equal(t, string(acquisition.DeliveryExcess), received.Items[0].DeliveryStatus)
	assert.True(t, dec("130").Equal(api.stack.Quantity(t, steel.ID)))

	w = api.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(acquisition.StatusReceived), decode[acquisitionapp.AcquisitionResponse](t, w).Data.Status)

	t.Run("received acquisitions are frozen", func(t *testing.T) {
		w := api.do(t, http.MethodPost, base+"/receive", map[string]any{})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidTransition, errorCode(t, w))

		w = api.do(t, http.MethodPost, base+"/cancel", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		w = api.do(t, http.MethodPut, base, map[string]any{
			"title": "Too late",
			"items": []map[string]any{{"material_id": steel.ID, "ordered_quantity": "1"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.True(t, dec("130").Equal(api.stack.Quantity(t, steel.ID)))
	})

	t.Run("raw material deliveries are not processed", func(t *testing.T) {
		w := api.do(t, http.MethodPost, base+"/process", map[string]any{
			"outputs": []map[string]any{{"source_item_id": received.Items[0].ID, "material_id": steel.ID, "quantity": "1"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestAcquisitionAPI_CancelAndList(t *testing.T) {
	api := newTestAPI(t)
	steel := api.stack.Material(t, "Steel", material.KindRawMaterial, "0")
	scrap := api.stack.Material(t, "Scrap", material.KindRecyclable, "0")
	kept := createAcquisition(t, api, acquisition.KindRawMaterials, steel.ID, "10")
	dropped := createAcquisition(t, api, acquisition.KindRecyclableMaterials, scrap.ID, "10")

	w := api.do(t, http.MethodPost, "/api/v1/acquisitions/"+dropped.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(acquisition.StatusCancelled), decode[acquisitionapp.AcquisitionResponse](t, w).Data.Status)

	w = api.do(t, http.MethodGet, "/api/v1/acquisitions?status=DRAFT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[[]acquisitionapp.AcquisitionListItemResponse](t, w)
	require.Len(t, env.Data, 1)
	assert.Equal(t, kept.ID, env.Data[0].ID)
	assert.Equal(t, 1, env.Data[0].ItemCount)

	w = api.do(t, http.MethodGet, "/api/v1/acquisitions?kind=RECYCLABLE_MATERIALS", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]acquisitionapp.AcquisitionListItemResponse](t, w).Data, 1)

	w = api.do(t, http.MethodGet, "/api/v1/acquisitions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
}

func TestAcquisitionAPI_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	steel := api.stack.Material(t, "Steel", material.KindRawMaterial, "0")

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{
			name:       "no items",
			body:       map[string]any{"title": "Empty", "kind": "RAW_MATERIALS", "items": []any{}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "unknown kind",
			body:       map[string]any{"title": "Odd", "kind": "GIFTS", "items": []map[string]any{{"material_id": steel.ID, "ordered_quantity": "1"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
		},
		{
			name:       "negative quantity",
			body:       map[string]any{"title": "Neg", "kind": "RAW_MATERIALS", "items": []map[string]any{{"material_id": steel.ID, "ordered_quantity": "-4"}}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   dto.ErrCodeInvalidQuantity,
		},
		{
			name:       "unknown material",
			body:       map[string]any{"title": "Ghost", "kind": "RAW_MATERIALS", "items": []map[string]any{{"material_id": uuid.New(), "ordered_quantity": "1"}}},
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeMaterialNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/v1/acquisitions", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestAcquisitionAPI_ProcessRecyclables(t *testing.T) {
	api := newTestAPI(t)
	scrap := api.stack.Material(t, "Aluminium scrap", material.KindRecyclable, "0")
	draft := createAcquisition(t, api, acquisition.KindRecyclableMaterials, scrap.ID, "50")
	base := "/api/v1/acquisitions/" + draft.ID.String()

	w := api.do(t, http.MethodPost, base+"/receive", map[string]any{})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	received := decode[acquisitionapp.AcquisitionResponse](t, w).Data
	assert.Equal(t, string(acquisition.StatusReadyForProcessing), received.Status)
	itemID := received.Items[0].ID

	w = api.do(t, http.MethodPost, base+"/process", map[string]any{
		"outputs": []map[string]any{{
			"source_item_id": itemID,
			"new_material":   map[string]any{"name": "Aluminium ingot"},
			"quantity":       "30",
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	processing := decode[acquisitionapp.ProcessingResponse](t, w).Data
	assert.True(t, processing.Processed)
	require.Len(t, processing.Records, 1)
	assert.True(t, dec("30").Equal(api.stack.Quantity(t, processing.Records[0].MaterialID)))

	w = api.do(t, http.MethodGet, base+"/processed", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[acquisitionapp.ProcessingResponse](t, w).Data
	require.Len(t, summary.Items, 1)
	assert.True(t, dec("20").Equal(summary.Items[0].Remaining))

	t.Run("over-processing is rejected by default", func(t *testing.T) {
		w := api.do(t, http.MethodPost, base+"/process", map[string]any{
			"outputs": []map[string]any{{"source_item_id": itemID, "material_id": processing.Records[0].MaterialID, "quantity": "25"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
		assert.True(t, dec("30").Equal(api.stack.Quantity(t, processing.Records[0].MaterialID)))
	})

	t.Run("outputs are required", func(t *testing.T) {
		w := api.do(t, http.MethodPost, base+"/process", map[string]any{"outputs": []any{}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
