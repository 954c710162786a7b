package acquisition

import "github.com/matflow/backend/internal/domain/material"

// Kind says what an acquisition brings in
type Kind string

const (
	KindRawMaterials        Kind = "RAW_MATERIALS"
	KindRecyclableMaterials Kind = "RECYCLABLE_MATERIALS"
)

// IsValid checks if the kind is a valid acquisition kind
func (k Kind) IsValid() bool {
	return k == KindRawMaterials || k == KindRecyclableMaterials
}

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// MaterialKind is the kind every item of this acquisition must have
func (k Kind) MaterialKind() material.Kind {
	if k == KindRecyclableMaterials {
		return material.KindRecyclable
	}
	return material.KindRawMaterial
}

// ReceivedStatus is the status an acquisition of this kind moves to when received
func (k Kind) ReceivedStatus() Status {
	if k == KindRecyclableMaterials {
		return StatusReadyForProcessing
	}
	return StatusReceived
}

// Status represents the lifecycle state of an acquisition
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusReceived           Status = "RECEIVED"
	StatusReadyForProcessing Status = "READY_FOR_PROCESSING"
	StatusCancelled          Status = "CANCELLED"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusReceived, StatusReadyForProcessing, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Receiving happens exactly once, and only a draft can be cancelled.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusReceived || target == StatusReadyForProcessing || target == StatusCancelled
	case StatusReceived, StatusReadyForProcessing, StatusCancelled:
		return false
	}
	return false
}
