package material

import (
	"strings"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Spec describes a material that does not exist yet
type Spec struct {
	Name         string
	Color        string
	Kind         Kind
	Unit         string
	MinimumStock decimal.Decimal
	UnitCost     decimal.Decimal
}

// Validate checks the required fields of a creation spec
func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "material name is required")
	}
	if !s.Kind.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid material kind: %q", s.Kind)
	}
	if strings.TrimSpace(s.Unit) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "unit of measure is required")
	}
	if err := shared.RequireNonNegative("minimum stock", s.MinimumStock); err != nil {
		return err
	}
	return shared.RequireNonNegative("unit cost", s.UnitCost)
}

// WithDefaultKind returns a copy of the spec whose kind is k when none was given
func (s Spec) WithDefaultKind(k Kind) Spec {
	if s.Kind == "" {
		s.Kind = k
	}
	return s
}

// Ref points at a material that either exists already or should be created
// from a spec. Exactly one of the two is set.
type Ref struct {
	id   uuid.UUID
	spec *Spec
}

// Existing references a material by id
func Existing(id uuid.UUID) Ref {
	return Ref{id: id}
}

// New references a material that will be created from spec
func New(spec Spec) Ref {
	return Ref{spec: &spec}
}

// IsNew reports whether the reference carries a creation spec
func (r Ref) IsNew() bool {
	return r.spec != nil
}

// ID returns the referenced id; uuid.Nil for a New reference
func (r Ref) ID() uuid.UUID {
	return r.id
}

// Spec returns the creation spec of a New reference
func (r Ref) Spec() (Spec, bool) {
	if r.spec == nil {
		return Spec{}, false
	}
	return *r.spec, true
}

// Validate checks that the reference is usable
func (r Ref) Validate() error {
	if r.spec != nil {
		if strings.TrimSpace(r.spec.Name) == "" {
			return shared.NewDomainError(shared.CodeValidationFailed, "new material requires a name")
		}
		return nil
	}
	if r.id == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed, "material id or new material spec is required")
	}
	return nil
}
