package material

import (
	"testing"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestRef(t *testing.T) {
	id := uuid.New()
	existing := Existing(id)
	assert.False(t, existing.IsNew())
	assert.Equal(t, id, existing.ID())
	assert.NoError(t, existing.Validate())
	_, ok := existing.Spec()
	assert.False(t, ok)

	created := New(Spec{Name: "Granulate", Unit: "kg"})
	assert.True(t, created.IsNew())
	assert.Equal(t, uuid.Nil, created.ID())
	spec, ok := created.Spec()
	assert.True(t, ok)
	assert.Equal(t, "Granulate", spec.Name)
	assert.NoError(t, created.Validate())
}

func TestRef_Validate(t *testing.T) {
	assert.ErrorIs(t, Ref{}.Validate(), shared.ErrValidationFailed)
	assert.ErrorIs(t, Existing(uuid.Nil).Validate(), shared.ErrValidationFailed)
	assert.ErrorIs(t, New(Spec{Unit: "kg"}).Validate(), shared.ErrValidationFailed)
}

func TestSpec_WithDefaultKind(t *testing.T) {
	spec := Spec{Name: "x", Unit: "kg"}.WithDefaultKind(KindRecyclable)
	assert.Equal(t, KindRecyclable, spec.Kind)

	spec = Spec{Name: "x", Unit: "kg", Kind: KindFinishedProduct}.WithDefaultKind(KindRawMaterial)
	assert.Equal(t, KindFinishedProduct, spec.Kind)
}
