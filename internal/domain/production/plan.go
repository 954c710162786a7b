package production

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RequiredInput is one requested input line of a plan
type RequiredInput struct {
	MaterialID              uuid.UUID
	RequiredQuantityPerUnit decimal.Decimal
}

// PlanInput carries the editable fields of a plan. The target must already
// exist as a material; callers resolve a new-material target beforehand.
type PlanInput struct {
	Name                           string
	Variant                        Variant
	TargetMaterialID               uuid.UUID
	TargetMaterialName             string
	QuantityToProduce              decimal.Decimal
	RequiredMaterials              []RequiredInput
	PlannedStartDate               *time.Time
	EstimatedProductionTimeMinutes int
	Notes                          string
	AssignedTo                     *uuid.UUID
}

// RequiredMaterial is one input line of a plan with display snapshots
type RequiredMaterial struct {
	ID                      uuid.UUID
	PlanID                  uuid.UUID
	LineNo                  int
	MaterialID              uuid.UUID
	MaterialName            string
	Unit                    string
	RequiredQuantityPerUnit decimal.Decimal
	AvailableQuantity       decimal.Decimal // snapshot taken at the last evaluation
	UnitCost                decimal.Decimal // snapshot taken at the last evaluation
}

// TotalRequired is the per-unit requirement scaled by qty, rounded up to the stored scale
func (r *RequiredMaterial) TotalRequired(qty decimal.Decimal) decimal.Decimal {
	return shared.ScaleQuantity(r.RequiredQuantityPerUnit.Mul(qty))
}

// ProducedOutput is one material credited when a plan completes
type ProducedOutput struct {
	MaterialID   uuid.UUID
	MaterialName string
	Quantity     decimal.Decimal
	Unit         string
}

// Consumption is one debit owed when a plan completes
type Consumption struct {
	MaterialID   uuid.UUID
	RequiredLine uuid.UUID
	Quantity     decimal.Decimal
	MaterialName string
}

// ProductionPlan is the aggregate root for converting inputs into a target material
type ProductionPlan struct {
	shared.BaseAggregateRoot
	Name                           string
	Variant                        Variant
	TargetMaterialID               uuid.UUID
	TargetMaterialName             string
	QuantityToProduce              decimal.Decimal
	Status                         Status
	PlannedStartDate               *time.Time
	EstimatedProductionTimeMinutes int
	Notes                          string
	CanProduce                     bool
	CreatedBy                      uuid.UUID
	AssignedTo                     *uuid.UUID
	StartedBy                      *uuid.UUID
	StartedAt                      *time.Time
	CompletedBy                    *uuid.UUID
	CompletedAt                    *time.Time
	CancelledAt                    *time.Time
	ActualQuantityProduced         *decimal.Decimal
	ActualProductionTimeMinutes    *int
	RequiredMaterials              []RequiredMaterial
	ProducedOutputs                []ProducedOutput
}

// NewProductionPlan creates a draft plan and evaluates it against stock.
// stock must hold a snapshot for every required material.
func NewProductionPlan(in PlanInput, stock map[uuid.UUID]StockSnapshot, createdBy uuid.UUID) (*ProductionPlan, Availability, error) {
	if createdBy == uuid.Nil {
		return nil, Availability{}, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}
	p := &ProductionPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            StatusDraft,
		CreatedBy:         createdBy,
	}
	if err := p.apply(in, stock); err != nil {
		return nil, Availability{}, err
	}
	if p.AssignedTo == nil {
		p.AssignedTo = &createdBy
	}
	availability := p.evaluate()

	p.AddDomainEvent(NewPlanCreatedEvent(p))
	return p, availability, nil
}

// Update replaces the editable fields of a draft plan and re-evaluates it
func (p *ProductionPlan) Update(in PlanInput, stock map[uuid.UUID]StockSnapshot) (Availability, error) {
	if p.Status != StatusDraft {
		return Availability{}, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot edit plan in %s status", p.Status)
	}
	if in.Variant == "" {
		in.Variant = p.Variant
	}
	if err := p.apply(in, stock); err != nil {
		return Availability{}, err
	}
	availability := p.evaluate()
	p.IncrementVersion()
	return availability, nil
}

// ValidateInput checks a plan input without touching stock
func ValidateInput(in PlanInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return shared.NewDomainError(shared.CodeValidationFailed, "plan name is required")
	}
	if !in.Variant.IsValid() {
		return shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid plan variant: %q", in.Variant)
	}
	if in.TargetMaterialID == uuid.Nil {
		return shared.NewDomainError(shared.CodeValidationFailed, "target material is required")
	}
	if err := shared.RequirePositive("quantity to produce", in.QuantityToProduce); err != nil {
		return err
	}
	if in.EstimatedProductionTimeMinutes < 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "estimated production time cannot be negative")
	}
	if len(in.RequiredMaterials) == 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "plan needs at least one required material")
	}
	seen := make(map[uuid.UUID]struct{}, len(in.RequiredMaterials))
	for i, line := range in.RequiredMaterials {
		if line.MaterialID == uuid.Nil {
			return shared.NewDomainErrorf(shared.CodeValidationFailed, "required material %d has no material", i+1)
		}
		if line.MaterialID == in.TargetMaterialID {
			return shared.NewDomainErrorf(shared.CodeValidationFailed, "required material %d is the plan's own target", i+1)
		}
		if _, dup := seen[line.MaterialID]; dup {
			return shared.NewDomainErrorf(shared.CodeDuplicateMaterial, "material %s is required more than once", line.MaterialID)
		}
		seen[line.MaterialID] = struct{}{}
		if err := shared.RequirePositive("required quantity per unit", line.RequiredQuantityPerUnit); err != nil {
			return fmt.Errorf("required material %d: %w", i+1, err)
		}
	}
	return nil
}

func (p *ProductionPlan) apply(in PlanInput, stock map[uuid.UUID]StockSnapshot) error {
	if err := ValidateInput(in); err != nil {
		return err
	}
	lines := make([]RequiredMaterial, 0, len(in.RequiredMaterials))
	for i, req := range in.RequiredMaterials {
		snap, ok := stock[req.MaterialID]
		if !ok {
			return shared.NewDomainErrorf(shared.CodeMaterialNotFound, "required material %s not found", req.MaterialID)
		}
		if want := in.Variant.InputKind(); snap.Kind != want {
			return shared.NewDomainErrorf(shared.CodeValidationFailed,
				"%s plans consume %s only, %s is %s", in.Variant, want, snap.Name, snap.Kind)
		}
		lines = append(lines, RequiredMaterial{
			ID:                      uuid.New(),
			PlanID:                  p.ID,
			LineNo:                  i + 1,
			MaterialID:              req.MaterialID,
			MaterialName:            snap.Name,
			Unit:                    snap.Unit,
			RequiredQuantityPerUnit: req.RequiredQuantityPerUnit,
			AvailableQuantity:       snap.Available,
			UnitCost:                snap.UnitCost,
		})
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Variant = in.Variant
	p.TargetMaterialID = in.TargetMaterialID
	p.TargetMaterialName = in.TargetMaterialName
	p.QuantityToProduce = in.QuantityToProduce
	p.PlannedStartDate = in.PlannedStartDate
	p.EstimatedProductionTimeMinutes = in.EstimatedProductionTimeMinutes
	p.Notes = strings.TrimSpace(in.Notes)
	if in.AssignedTo != nil {
		p.AssignedTo = in.AssignedTo
	}
	p.RequiredMaterials = lines
	return nil
}

// evaluate computes availability from the current snapshots and stores CanProduce
func (p *ProductionPlan) evaluate() Availability {
	result := p.Availability()
	p.CanProduce = result.CanProduce
	return result
}

// Availability evaluates the plan against its stored snapshots
func (p *ProductionPlan) Availability() Availability {
	result := Availability{Lines: make([]LineAvailability, 0, len(p.RequiredMaterials)), CanProduce: true}
	for i := range p.RequiredMaterials {
		line := &p.RequiredMaterials[i]
		total := line.TotalRequired(p.QuantityToProduce)
		status := EvaluateLine(line.AvailableQuantity, total)
		if status.IsShort() {
			result.CanProduce = false
		}
		result.Lines = append(result.Lines, LineAvailability{
			MaterialID:    line.MaterialID,
			Available:     line.AvailableQuantity,
			TotalRequired: total,
			Status:        status,
		})
	}
	return result
}

// RefreshAvailability replaces the stock snapshots of a plan that has not started
func (p *ProductionPlan) RefreshAvailability(stock map[uuid.UUID]StockSnapshot) (Availability, error) {
	if p.Status != StatusDraft && p.Status != StatusPlanned {
		return Availability{}, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot re-evaluate plan in %s status", p.Status)
	}
	if err := p.applySnapshots(stock); err != nil {
		return Availability{}, err
	}
	availability := p.evaluate()
	p.IncrementVersion()
	return availability, nil
}

func (p *ProductionPlan) applySnapshots(stock map[uuid.UUID]StockSnapshot) error {
	for i := range p.RequiredMaterials {
		line := &p.RequiredMaterials[i]
		snap, ok := stock[line.MaterialID]
		if !ok {
			return shared.NewDomainErrorf(shared.CodeMaterialNotFound, "required material %s not found", line.MaterialID)
		}
		line.AvailableQuantity = snap.Available
		line.UnitCost = snap.UnitCost
		line.MaterialName = snap.Name
		line.Unit = snap.Unit
	}
	return nil
}

// Schedule moves a draft to Planned
func (p *ProductionPlan) Schedule() error {
	if p.Status != StatusDraft {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot schedule plan in %s status", p.Status)
	}
	p.Status = StatusPlanned
	p.IncrementVersion()
	return nil
}

// Start moves a Draft or Planned plan to InProgress after re-evaluating it
// against fresh stock. It does not touch the ledger.
func (p *ProductionPlan) Start(stock map[uuid.UUID]StockSnapshot, startedBy uuid.UUID) (Availability, error) {
	if p.Status != StatusDraft && p.Status != StatusPlanned {
		return Availability{}, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot start plan in %s status", p.Status)
	}
	if err := p.applySnapshots(stock); err != nil {
		return Availability{}, err
	}
	availability := p.evaluate()
	if !availability.CanProduce {
		short := availability.ShortLines()
		return availability, shared.NewDomainErrorf(shared.CodeInsufficientStock,
			"cannot start plan: %d required material(s) short, first %s is %s",
			len(short), short[0].MaterialID, short[0].Status)
	}

	now := time.Now()
	p.Status = StatusInProgress
	p.StartedAt = &now
	if startedBy != uuid.Nil {
		p.StartedBy = &startedBy
	}
	p.IncrementVersion()

	p.AddDomainEvent(NewPlanStartedEvent(p, startedBy))
	return availability, nil
}

// Cancel cancels any plan that has not completed or been cancelled
func (p *ProductionPlan) Cancel(cancelledBy uuid.UUID) error {
	if !p.Status.CanTransitionTo(StatusCancelled) {
		return shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot cancel plan in %s status", p.Status)
	}
	now := time.Now()
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.IncrementVersion()

	p.AddDomainEvent(NewPlanCancelledEvent(p, cancelledBy))
	return nil
}

// Consumption returns the debits owed for producing actual units, scaled by
// the actual quantity rather than the planned one.
func (p *ProductionPlan) Consumption(actual decimal.Decimal) ([]Consumption, error) {
	if p.Status != StatusInProgress {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot complete plan in %s status", p.Status)
	}
	if err := shared.RequirePositive("actual quantity produced", actual); err != nil {
		return nil, err
	}
	out := make([]Consumption, 0, len(p.RequiredMaterials))
	for i := range p.RequiredMaterials {
		line := &p.RequiredMaterials[i]
		out = append(out, Consumption{
			MaterialID:   line.MaterialID,
			RequiredLine: line.ID,
			Quantity:     line.TotalRequired(actual),
			MaterialName: line.MaterialName,
		})
	}
	return out, nil
}

// Completion is the outcome recorded when a plan completes
type Completion struct {
	ActualQuantity    decimal.Decimal
	ActualTimeMinutes *int
	Notes             *string
	Outputs           []ProducedOutput
}

// Complete marks an in-progress plan completed. The caller has already
// debited inputs and credited outputs in the same atomic scope.
func (p *ProductionPlan) Complete(c Completion, completedBy uuid.UUID) error {
	if _, err := p.Consumption(c.ActualQuantity); err != nil {
		return err
	}
	if c.ActualTimeMinutes != nil && *c.ActualTimeMinutes < 0 {
		return shared.NewDomainError(shared.CodeValidationFailed, "actual production time cannot be negative")
	}

	now := time.Now()
	actual := c.ActualQuantity
	p.Status = StatusCompleted
	p.CompletedAt = &now
	if completedBy != uuid.Nil {
		p.CompletedBy = &completedBy
	}
	p.ActualQuantityProduced = &actual
	p.ActualProductionTimeMinutes = c.ActualTimeMinutes
	if c.Notes != nil {
		p.Notes = strings.TrimSpace(*c.Notes)
	}
	p.ProducedOutputs = c.Outputs
	p.IncrementVersion()

	p.AddDomainEvent(NewPlanCompletedEvent(p, completedBy))
	return nil
}

// EstimatedMaterialCost values the planned consumption at the snapshot unit costs
func (p *ProductionPlan) EstimatedMaterialCost() decimal.Decimal {
	total := decimal.Zero
	for i := range p.RequiredMaterials {
		line := &p.RequiredMaterials[i]
		total = total.Add(line.TotalRequired(p.QuantityToProduce).Mul(line.UnitCost))
	}
	return total
}

// MaterialIDs returns the ids of every required material
func (p *ProductionPlan) MaterialIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(p.RequiredMaterials))
	for _, line := range p.RequiredMaterials {
		ids = append(ids, line.MaterialID)
	}
	return ids
}

// TemplateLines returns the plan's inputs in template form
func (p *ProductionPlan) TemplateLines() []TemplateLine {
	lines := make([]TemplateLine, 0, len(p.RequiredMaterials))
	for _, line := range p.RequiredMaterials {
		lines = append(lines, TemplateLine{
			MaterialID:              line.MaterialID,
			RequiredQuantityPerUnit: line.RequiredQuantityPerUnit,
		})
	}
	return lines
}
