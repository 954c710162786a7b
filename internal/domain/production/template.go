package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TemplateLine is one input of a product template
type TemplateLine struct {
	MaterialID              uuid.UUID
	RequiredQuantityPerUnit decimal.Decimal
}

// ProductTemplate is the reusable recipe for one target material
type ProductTemplate struct {
	TargetMaterialID               uuid.UUID
	EstimatedProductionTimeMinutes int
	Lines                          []TemplateLine
	UpdatedBy                      uuid.UUID
	CreatedAt                      time.Time
	UpdatedAt                      time.Time
}

// TemplateFromPlan builds the template a plan would save for its target
func TemplateFromPlan(p *ProductionPlan, updatedBy uuid.UUID) (*ProductTemplate, error) {
	t := &ProductTemplate{
		TargetMaterialID:               p.TargetMaterialID,
		EstimatedProductionTimeMinutes: p.EstimatedProductionTimeMinutes,
		Lines:                          p.TemplateLines(),
		UpdatedBy:                      updatedBy,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the template is usable as a recipe
func (t *ProductTemplate) Validate() error {
	if t.TargetMaterialID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed, "template target material is required")
	}
	if t.EstimatedProductionTimeMinutes < 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "estimated production time cannot be negative")
	}
	if len(t.Lines) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "template needs at least one line")
	}
	seen := make(map[uuid.UUID]struct{}, len(t.Lines))
	for _, line := range t.Lines {
		if _, dup := seen[line.MaterialID]; dup {
			return shared.NewDomainErrorf(shared.CodeDuplicateMaterial, "material %s appears more than once in template", line.MaterialID)
		}
		seen[line.MaterialID] = struct{}{}
		if err := shared.RequirePositive("required quantity per unit", line.RequiredQuantityPerUnit); err != nil {
			return err
		}
	}
	return nil
}

// RequiredInputs converts the template lines into plan input lines
func (t *ProductTemplate) RequiredInputs() []RequiredInput {
	out := make([]RequiredInput, 0, len(t.Lines))
	for _, line := range t.Lines {
		out = append(out, RequiredInput{MaterialID: line.MaterialID, RequiredQuantityPerUnit: line.RequiredQuantityPerUnit})
	}
	return out
}
