package acquisition

import (
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readyForProcessing(t *testing.T, ordered string) *Acquisition {
	t.Helper()
	a := newDraft(t, KindRecyclableMaterials, ordered)
	_, err := a.Receive(nil, uuid.New())
	require.NoError(t, err)
	return a
}

func TestCheckProcessing_WithinReceived(t *testing.T) {
	a := readyForProcessing(t, "50")
	item := a.Items[0].ID

	summary, err := a.CheckProcessing([]ProcessingOutput{
		{SourceItemID: item, Material: material.Existing(uuid.New()), Quantity: dec("30"), Unit: "kg"},
		{SourceItemID: item, Material: material.New(material.Spec{Name: "Regrind"}), Quantity: dec("20"), Unit: "kg"},
	}, nil, false)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.True(t, summary[0].Processed.Equal(dec("50")))
	assert.False(t, summary[0].OverProcessed)
	assert.True(t, summary[0].Remaining().IsZero())
}

func TestCheckProcessing_OverProcessingPolicy(t *testing.T) {
	a := readyForProcessing(t, "50")
	item := a.Items[0].ID
	existing := []ProcessedMaterial{{SourceItemID: item, Quantity: dec("40")}}
	outputs := []ProcessingOutput{{SourceItemID: item, Material: material.Existing(uuid.New()), Quantity: dec("15"), Unit: "kg"}}

	_, err := a.CheckProcessing(outputs, existing, false)
	assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

	summary, err := a.CheckProcessing(outputs, existing, true)
	require.NoError(t, err)
	assert.True(t, summary[0].OverProcessed)
	assert.True(t, summary[0].Remaining().Equal(dec("-5")))
}

func TestCheckProcessing_Rejections(t *testing.T) {
	draft := newDraft(t, KindRecyclableMaterials, "10")
	_, err := draft.CheckProcessing([]ProcessingOutput{{SourceItemID: draft.Items[0].ID, Material: material.Existing(uuid.New()), Quantity: dec("1"), Unit: "kg"}}, nil, false)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	raw := newDraft(t, KindRawMaterials, "10")
	_, err = raw.Receive(nil, uuid.New())
	require.NoError(t, err)
	_, err = raw.CheckProcessing([]ProcessingOutput{{SourceItemID: raw.Items[0].ID, Material: material.Existing(uuid.New()), Quantity: dec("1"), Unit: "kg"}}, nil, false)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition, "raw material acquisitions are never processed")

	a := readyForProcessing(t, "10")
	item := a.Items[0].ID
	tests := []struct {
		name    string
		output  ProcessingOutput
		wantErr error
	}{
		{"zero quantity", ProcessingOutput{SourceItemID: item, Material: material.Existing(uuid.New()), Quantity: dec("0"), Unit: "kg"}, shared.ErrInvalidQuantity},
		{"missing unit", ProcessingOutput{SourceItemID: item, Material: material.Existing(uuid.New()), Quantity: dec("1")}, shared.ErrValidationFailed},
		{"foreign item", ProcessingOutput{SourceItemID: uuid.New(), Material: material.Existing(uuid.New()), Quantity: dec("1"), Unit: "kg"}, shared.ErrValidationFailed},
		{"missing material", ProcessingOutput{SourceItemID: item, Quantity: dec("1"), Unit: "kg"}, shared.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.CheckProcessing([]ProcessingOutput{tt.output}, nil, false)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = a.CheckProcessing(nil, nil, false)
	assert.ErrorIs(t, err, shared.ErrValidationFailed)
}

func TestRecordProcessing(t *testing.T) {
	a := readyForProcessing(t, "10")
	a.ClearDomainEvents()
	version := a.Version

	rec := NewProcessedMaterial(a.ID, a.Items[0].ID, uuid.New(), dec("4"), "kg", uuid.New())
	a.RecordProcessing([]ProcessedMaterial{*rec}, uuid.New())

	assert.Equal(t, version+1, a.Version)
	assert.Equal(t, StatusReadyForProcessing, a.Status)
	require.Len(t, a.GetDomainEvents(), 1)
	evt := a.GetDomainEvents()[0].(*RecyclablesProcessedEvent)
	assert.True(t, evt.TotalProcessed.Equal(dec("4")))
}
