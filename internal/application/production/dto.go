package production

import (
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/shopspring/decimal"
)

// RequiredMaterialRequest is one input line of a plan request
type RequiredMaterialRequest struct {
	MaterialID              uuid.UUID       `json:"material_id" binding:"required"`
	RequiredQuantityPerUnit decimal.Decimal `json:"required_quantity_per_unit"`
}

// CreatePlanRequest represents a request to create a production plan.
// Exactly one of TargetMaterialID and NewTarget names the output.
// SaveAsTemplate opts in to overwriting the target's template when the
// plan drifts from it.
type CreatePlanRequest struct {
	Name                           string                     `json:"name" binding:"required,min=1,max=200"`
	Variant                        string                     `json:"variant" binding:"required,oneof=FROM_RAW_MATERIALS FROM_RECYCLABLES"`
	TargetMaterialID               *uuid.UUID                 `json:"target_material_id"`
	NewTarget                      *ledger.NewMaterialRequest `json:"new_target"`
	QuantityToProduce              decimal.Decimal            `json:"quantity_to_produce"`
	RequiredMaterials              []RequiredMaterialRequest  `json:"required_materials" binding:"required,min=1,dive"`
	PlannedStartDate               *time.Time                 `json:"planned_start_date"`
	EstimatedProductionTimeMinutes int                        `json:"estimated_production_time_minutes" binding:"min=0"`
	Notes                          string                     `json:"notes" binding:"max=2000"`
	AssignedTo                     *uuid.UUID                 `json:"assigned_to"`
	SaveAsTemplate                 bool                       `json:"save_as_template"`
}

// UpdatePlanRequest replaces the editable fields of a draft plan
type UpdatePlanRequest struct {
	Name                           string                    `json:"name" binding:"required,min=1,max=200"`
	QuantityToProduce              decimal.Decimal           `json:"quantity_to_produce"`
	RequiredMaterials              []RequiredMaterialRequest `json:"required_materials" binding:"required,min=1,dive"`
	PlannedStartDate               *time.Time                `json:"planned_start_date"`
	EstimatedProductionTimeMinutes int                       `json:"estimated_production_time_minutes" binding:"min=0"`
	Notes                          string                    `json:"notes" binding:"max=2000"`
	AssignedTo                     *uuid.UUID                `json:"assigned_to"`
	SaveAsTemplate                 bool                      `json:"save_as_template"`
}

// ProducedMaterialRequest is one explicit output of a completion
type ProducedMaterialRequest struct {
	MaterialID  *uuid.UUID                 `json:"material_id"`
	NewMaterial *ledger.NewMaterialRequest `json:"new_material"`
	Quantity    decimal.Decimal            `json:"quantity"`
}

// CompletePlanRequest represents a request to complete a plan
type CompletePlanRequest struct {
	ActualQuantityProduced      decimal.Decimal           `json:"actual_quantity_produced"`
	ActualProductionTimeMinutes *int                      `json:"actual_production_time_minutes" binding:"omitempty,min=0"`
	Notes                       *string                   `json:"notes" binding:"omitempty,max=2000"`
	ProducedMaterials           []ProducedMaterialRequest `json:"produced_materials" binding:"dive"`
}

// TemplateLineRequest is one line of a drift check
type TemplateLineRequest struct {
	MaterialID              uuid.UUID       `json:"material_id" binding:"required"`
	RequiredQuantityPerUnit decimal.Decimal `json:"required_quantity_per_unit"`
}

// DriftRequest compares candidate plan lines with a target's template
type DriftRequest struct {
	Lines                          []TemplateLineRequest `json:"lines" binding:"dive"`
	EstimatedProductionTimeMinutes int                   `json:"estimated_production_time_minutes" binding:"min=0"`
}

// SaveTemplateRequest saves a plan's inputs as its target's template
type SaveTemplateRequest struct {
	PlanID uuid.UUID `json:"plan_id" binding:"required"`
}

// PlanListFilter represents filter options for the plan list
type PlanListFilter struct {
	Search           string     `form:"search"`
	Variant          string     `form:"variant" binding:"omitempty,oneof=FROM_RAW_MATERIALS FROM_RECYCLABLES"`
	Status           string     `form:"status" binding:"omitempty,oneof=DRAFT PLANNED IN_PROGRESS COMPLETED CANCELLED"`
	TargetMaterialID *uuid.UUID `form:"-"`
	Page             int        `form:"page" binding:"omitempty,min=1"`
	PageSize         int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy          string     `form:"order_by" binding:"omitempty,oneof=name status planned_start_date created_at updated_at"`
	OrderDir         string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// LineAvailabilityResponse is the availability of one required material
type LineAvailabilityResponse struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	Available     decimal.Decimal `json:"available"`
	TotalRequired decimal.Decimal `json:"total_required"`
	Status        string          `json:"status"`
	Shortage      decimal.Decimal `json:"shortage"`
}

// AvailabilityResponse is the evaluated availability of a plan
type AvailabilityResponse struct {
	CanProduce bool                       `json:"can_produce"`
	Lines      []LineAvailabilityResponse `json:"lines"`
}

func toAvailabilityResponse(a production.Availability) AvailabilityResponse {
	resp := AvailabilityResponse{CanProduce: a.CanProduce, Lines: make([]LineAvailabilityResponse, len(a.Lines))}
	for i, l := range a.Lines {
		resp.Lines[i] = LineAvailabilityResponse{
			MaterialID:    l.MaterialID,
			Available:     l.Available,
			TotalRequired: l.TotalRequired,
			Status:        l.Status.String(),
			Shortage:      l.Status.Shortage,
		}
	}
	return resp
}

// RequiredMaterialResponse represents a plan input line
type RequiredMaterialResponse struct {
	ID                      uuid.UUID       `json:"id"`
	LineNo                  int             `json:"line_no"`
	MaterialID              uuid.UUID       `json:"material_id"`
	MaterialName            string          `json:"material_name"`
	Unit                    string          `json:"unit"`
	RequiredQuantityPerUnit decimal.Decimal `json:"required_quantity_per_unit"`
	TotalRequired           decimal.Decimal `json:"total_required"`
	AvailableQuantity       decimal.Decimal `json:"available_quantity"`
	UnitCost                decimal.Decimal `json:"unit_cost"`
}

// ProducedOutputResponse represents a material credited on completion
type ProducedOutputResponse struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

// PlanResponse represents a production plan in API responses
type PlanResponse struct {
	ID                             uuid.UUID                  `json:"id"`
	Name                           string                     `json:"name"`
	Variant                        string                     `json:"variant"`
	TargetMaterialID               uuid.UUID                  `json:"target_material_id"`
	TargetMaterialName             string                     `json:"target_material_name"`
	QuantityToProduce              decimal.Decimal            `json:"quantity_to_produce"`
	Status                         string                     `json:"status"`
	CanProduce                     bool                       `json:"can_produce"`
	PlannedStartDate               *time.Time                 `json:"planned_start_date,omitempty"`
	EstimatedProductionTimeMinutes int                        `json:"estimated_production_time_minutes"`
	EstimatedMaterialCost          decimal.Decimal            `json:"estimated_material_cost"`
	Notes                          string                     `json:"notes,omitempty"`
	CreatedBy                      uuid.UUID                  `json:"created_by"`
	AssignedTo                     *uuid.UUID                 `json:"assigned_to,omitempty"`
	StartedBy                      *uuid.UUID                 `json:"started_by,omitempty"`
	StartedAt                      *time.Time                 `json:"started_at,omitempty"`
	CompletedBy                    *uuid.UUID                 `json:"completed_by,omitempty"`
	CompletedAt                    *time.Time                 `json:"completed_at,omitempty"`
	CancelledAt                    *time.Time                 `json:"cancelled_at,omitempty"`
	ActualQuantityProduced         *decimal.Decimal           `json:"actual_quantity_produced,omitempty"`
	ActualProductionTimeMinutes    *int                       `json:"actual_production_time_minutes,omitempty"`
	RequiredMaterials              []RequiredMaterialResponse `json:"required_materials"`
	ProducedOutputs                []ProducedOutputResponse   `json:"produced_outputs,omitempty"`
	Availability                   *AvailabilityResponse      `json:"availability,omitempty"`
	TemplateDrift                  *bool                      `json:"template_drift,omitempty"`
	TemplateSaved                  *bool                      `json:"template_saved,omitempty"`
	CreatedAt                      time.Time                  `json:"created_at"`
	UpdatedAt                      time.Time                  `json:"updated_at"`
	Version                        int                        `json:"version"`
}

// ToPlanResponse converts a domain plan to a response
func ToPlanResponse(p *production.ProductionPlan) PlanResponse {
	lines := make([]RequiredMaterialResponse, len(p.RequiredMaterials))
	for i := range p.RequiredMaterials {
		l := &p.RequiredMaterials[i]
		lines[i] = RequiredMaterialResponse{
			ID:                      l.ID,
			LineNo:                  l.LineNo,
			MaterialID:              l.MaterialID,
			MaterialName:            l.MaterialName,
			Unit:                    l.Unit,
			RequiredQuantityPerUnit: l.RequiredQuantityPerUnit,
			TotalRequired:           l.TotalRequired(p.QuantityToProduce),
			AvailableQuantity:       l.AvailableQuantity,
			UnitCost:                l.UnitCost,
		}
	}
	var outputs []ProducedOutputResponse
	for _, o := range p.ProducedOutputs {
		outputs = append(outputs, ProducedOutputResponse{
			MaterialID:   o.MaterialID,
			MaterialName: o.MaterialName,
			Quantity:     o.Quantity,
			Unit:         o.Unit,
		})
	}
	return PlanResponse{
		ID:                             p.ID,
		Name:                           p.Name,
		Variant:                        string(p.Variant),
		TargetMaterialID:               p.TargetMaterialID,
		TargetMaterialName:             p.TargetMaterialName,
		QuantityToProduce:              p.QuantityToProduce,
		Status:                         string(p.Status),
		CanProduce:                     p.CanProduce,
		PlannedStartDate:               p.PlannedStartDate,
		EstimatedProductionTimeMinutes: p.EstimatedProductionTimeMinutes,
		EstimatedMaterialCost:          p.EstimatedMaterialCost(),
		Notes:                          p.Notes,
		CreatedBy:                      p.CreatedBy,
		AssignedTo:                     p.AssignedTo,
		StartedBy:                      p.StartedBy,
		StartedAt:                      p.StartedAt,
		CompletedBy:                    p.CompletedBy,
		CompletedAt:                    p.CompletedAt,
		CancelledAt:                    p.CancelledAt,
		ActualQuantityProduced:         p.ActualQuantityProduced,
		ActualProductionTimeMinutes:    p.ActualProductionTimeMinutes,
		RequiredMaterials:              lines,
		ProducedOutputs:                outputs,
		CreatedAt:                      p.CreatedAt,
		UpdatedAt:                      p.UpdatedAt,
		Version:                        p.Version,
	}
}

// PlanListItemResponse is the list view of a plan
type PlanListItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Variant            string          `json:"variant"`
	TargetMaterialID   uuid.UUID       `json:"target_material_id"`
	TargetMaterialName string          `json:"target_material_name"`
	QuantityToProduce  decimal.Decimal `json:"quantity_to_produce"`
	Status             string          `json:"status"`
	CanProduce         bool            `json:"can_produce"`
	PlannedStartDate   *time.Time      `json:"planned_start_date,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ToPlanListItemResponses converts plans to list items
func ToPlanListItemResponses(plans []production.ProductionPlan) []PlanListItemResponse {
	out := make([]PlanListItemResponse, len(plans))
	for i := range plans {
		p := &plans[i]
		out[i] = PlanListItemResponse{
			ID:                 p.ID,
			Name:               p.Name,
			Variant:            string(p.Variant),
			TargetMaterialID:   p.TargetMaterialID,
			TargetMaterialName: p.TargetMaterialName,
			QuantityToProduce:  p.QuantityToProduce,
			Status:             string(p.Status),
			CanProduce:         p.CanProduce,
			PlannedStartDate:   p.PlannedStartDate,
			CreatedAt:          p.CreatedAt,
		}
	}
	return out
}

// TemplateLineResponse is one line of a template
type TemplateLineResponse struct {
	MaterialID              uuid.UUID       `json:"material_id"`
	RequiredQuantityPerUnit decimal.Decimal `json:"required_quantity_per_unit"`
}

// TemplateResponse represents a product template
type TemplateResponse struct {
	TargetMaterialID               uuid.UUID              `json:"target_material_id"`
	EstimatedProductionTimeMinutes int                    `json:"estimated_production_time_minutes"`
	Lines                          []TemplateLineResponse `json:"lines"`
	UpdatedBy                      uuid.UUID              `json:"updated_by"`
	CreatedAt                      time.Time              `json:"created_at"`
	UpdatedAt                      time.Time              `json:"updated_at"`
}

// ToTemplateResponse converts a domain template to a response
func ToTemplateResponse(t *production.ProductTemplate) TemplateResponse {
	lines := make([]TemplateLineResponse, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = TemplateLineResponse{MaterialID: l.MaterialID, RequiredQuantityPerUnit: l.RequiredQuantityPerUnit}
	}
	return TemplateResponse{
		TargetMaterialID:               t.TargetMaterialID,
		EstimatedProductionTimeMinutes: t.EstimatedProductionTimeMinutes,
		Lines:                          lines,
		UpdatedBy:                      t.UpdatedBy,
		CreatedAt:                      t.CreatedAt,
		UpdatedAt:                      t.UpdatedAt,
	}
}

// TemplateLookupResponse carries a template when one exists; absence is not an error
type TemplateLookupResponse struct {
	Found    bool              `json:"found"`
	Template *TemplateResponse `json:"template,omitempty"`
}

// DriftResponse reports whether candidate lines drift from a template
type DriftResponse struct {
	TargetMaterialID uuid.UUID `json:"target_material_id"`
	TemplateFound    bool      `json:"template_found"`
	Drift            bool      `json:"drift"`
}

func toRequiredInputs(reqs []RequiredMaterialRequest) []production.RequiredInput {
	out := make([]production.RequiredInput, len(reqs))
	for i, r := range reqs {
		out[i] = production.RequiredInput{MaterialID: r.MaterialID, RequiredQuantityPerUnit: r.RequiredQuantityPerUnit}
	}
	return out
}

func toTemplateLines(reqs []TemplateLineRequest) []production.TemplateLine {
	out := make([]production.TemplateLine, len(reqs))
	for i, r := range reqs {
		out[i] = production.TemplateLine{MaterialID: r.MaterialID, RequiredQuantityPerUnit: r.RequiredQuantityPerUnit}
	}
	return out
}

func targetRef(id *uuid.UUID, spec *ledger.NewMaterialRequest) material.Ref {
	return ledger.MaterialRef(id, spec)
}
