package production

import "github.com/matflow/backend/internal/domain/material"

// Variant says what a plan converts into what
type Variant string

const (
	// VariantFromRawMaterials produces finished products from raw materials
	VariantFromRawMaterials Variant = "FROM_RAW_MATERIALS"
	// VariantFromRecyclables produces raw material from recyclables
	VariantFromRecyclables Variant = "FROM_RECYCLABLES"
)

// IsValid checks if the variant is known
func (v Variant) IsValid() bool {
	return v == VariantFromRawMaterials || v == VariantFromRecyclables
}

// String returns the string representation of Variant
func (v Variant) String() string {
	return string(v)
}

// TargetKind is the kind given to a target material created for this variant
func (v Variant) TargetKind() material.Kind {
	if v == VariantFromRecyclables {
		return material.KindRawMaterial
	}
	return material.KindFinishedProduct
}

// InputKind is the only kind a plan of this variant may consume
func (v Variant) InputKind() material.Kind {
	if v == VariantFromRecyclables {
		return material.KindRecyclable
	}
	return material.KindRawMaterial
}

// Status represents the lifecycle state of a production plan
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for completed and cancelled plans
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPlanned || target == StatusInProgress || target == StatusCancelled
	case StatusPlanned:
		return target == StatusInProgress || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}
