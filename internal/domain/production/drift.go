package production

import "github.com/google/uuid"

// DetectDrift reports whether a plan's current inputs differ from the template
// it was loaded from. Line order is ignored; quantities compare numerically.
func DetectDrift(original, current []TemplateLine, originalMinutes, currentMinutes int) bool {
	if originalMinutes != currentMinutes {
		return true
	}
	if len(original) != len(current) {
		return true
	}
	byMaterial := make(map[uuid.UUID]TemplateLine, len(original))
	for _, line := range original {
		byMaterial[line.MaterialID] = line
	}
	for _, line := range current {
		orig, ok := byMaterial[line.MaterialID]
		if !ok || !orig.RequiredQuantityPerUnit.Equal(line.RequiredQuantityPerUnit) {
			return true
		}
		delete(byMaterial, line.MaterialID)
	}
	return len(byMaterial) != 0
}

// DetectTemplateDrift compares a plan against a saved template. A missing
// template always counts as drift so the first plan seeds one.
func DetectTemplateDrift(t *ProductTemplate, p *ProductionPlan) bool {
	if t == nil {
		return true
	}
	return DetectDrift(t.Lines, p.TemplateLines(), t.EstimatedProductionTimeMinutes, p.EstimatedProductionTimeMinutes)
}
