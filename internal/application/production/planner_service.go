package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PlannerOptions are the planning policies taken from configuration
type PlannerOptions struct {
	// SaveTemplateOnDrift honours a caller's request to overwrite a drifted
	// template. When false templates are only written through SaveTemplate.
	SaveTemplateOnDrift bool
}

// PlannerService owns production plans and product templates
type PlannerService struct {
	runner    *txn.AtomicRunner
	plans     production.PlanRepository
	templates production.TemplateRepository
	materials material.MaterialRepository
	opts      PlannerOptions
	logger    *zap.Logger
}

// NewPlannerService creates a new PlannerService
func NewPlannerService(
	runner *txn.AtomicRunner,
	plans production.PlanRepository,
	templates production.TemplateRepository,
	materials material.MaterialRepository,
	opts PlannerOptions,
	logger *zap.Logger,
) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannerService{
		runner:    runner,
		plans:     plans,
		templates: templates,
		materials: materials,
		opts:      opts,
		logger:    logger,
	}
}

// snapshots reads the current stock of every id through repo
func snapshots(ctx context.Context, repo material.MaterialRepository, ids []uuid.UUID) (map[uuid.UUID]production.StockSnapshot, error) {
	out := make(map[uuid.UUID]production.StockSnapshot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range found {
		m := &found[i]
		out[m.ID] = production.StockSnapshot{
			MaterialID: m.ID,
			Name:       m.Name,
			Unit:       m.Unit,
			Kind:       m.Kind,
			Available:  m.Quantity,
			UnitCost:   m.UnitCost,
		}
	}
	return out, nil
}

func requiredIDs(reqs []RequiredMaterialRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.MaterialID)
	}
	return ids
}

// CreatePlan creates a draft plan, creating a new target material first when
// asked to, and evaluates it against current stock. When the caller opts in
// and the plan drifts from the target's template, the template is
// overwritten after the plan is stored; that write is best-effort.
func (s *PlannerService) CreatePlan(ctx context.Context, req CreatePlanRequest, actorID uuid.UUID) (*PlanResponse, error) {
	variant := production.Variant(req.Variant)
	if !variant.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid plan variant: %q", req.Variant)
	}
	ref := targetRef(req.TargetMaterialID, req.NewTarget)
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var (
		plan         *production.ProductionPlan
		availability production.Availability
	)
	err := s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		target, err := ledger.NewPosting(u).Resolve(ctx, ref, variant.TargetKind(), actorID)
		if err != nil {
			return err
		}
		if !ref.IsNew() && target.Kind != variant.TargetKind() {
			return shared.NewDomainErrorf(shared.CodeValidationFailed,
				"%s plans produce %s, %s is %s", variant, variant.TargetKind(), target.Name, target.Kind)
		}
		stock, err := snapshots(ctx, u.Repos.Materials(), requiredIDs(req.RequiredMaterials))
		if err != nil {
			return err
		}
		plan, availability, err = production.NewProductionPlan(production.PlanInput{
			Name:                           req.Name,
			Variant:                        variant,
			TargetMaterialID:               target.ID,
			TargetMaterialName:             target.Name,
			QuantityToProduce:              req.QuantityToProduce,
			RequiredMaterials:              toRequiredInputs(req.RequiredMaterials),
			PlannedStartDate:               req.PlannedStartDate,
			EstimatedProductionTimeMinutes: req.EstimatedProductionTimeMinutes,
			Notes:                          req.Notes,
			AssignedTo:                     req.AssignedTo,
		}, stock, actorID)
		if err != nil {
			return err
		}
		if err := u.Repos.Plans().Create(ctx, plan); err != nil {
			return err
		}
		u.Collect(plan)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToPlanResponse(plan)
	avail := toAvailabilityResponse(availability)
	resp.Availability = &avail
	s.reconcileTemplate(ctx, plan, req.SaveAsTemplate, actorID, &resp)
	return &resp, nil
}

// UpdatePlan edits a draft plan and re-evaluates it
func (s *PlannerService) UpdatePlan(ctx context.Context, id uuid.UUID, req UpdatePlanRequest, actorID uuid.UUID) (*PlanResponse, error) {
	var (
		plan         *production.ProductionPlan
		availability production.Availability
	)
	err := s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		p, err := u.Repos.Plans().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		stock, err := snapshots(ctx, u.Repos.Materials(), requiredIDs(req.RequiredMaterials))
		if err != nil {
			return err
		}
		availability, err = p.Update(production.PlanInput{
			Name:                           req.Name,
			Variant:                        p.Variant,
			TargetMaterialID:               p.TargetMaterialID,
			TargetMaterialName:             p.TargetMaterialName,
			QuantityToProduce:              req.QuantityToProduce,
			RequiredMaterials:              toRequiredInputs(req.RequiredMaterials),
			PlannedStartDate:               req.PlannedStartDate,
			EstimatedProductionTimeMinutes: req.EstimatedProductionTimeMinutes,
			Notes:                          req.Notes,
			AssignedTo:                     req.AssignedTo,
		}, stock)
		if err != nil {
			return err
		}
		if err := u.Repos.Plans().SaveWithLock(ctx, p); err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToPlanResponse(plan)
	avail := toAvailabilityResponse(availability)
	resp.Availability = &avail
	s.reconcileTemplate(ctx, plan, req.SaveAsTemplate, actorID, &resp)
	return &resp, nil
}

// reconcileTemplate reports drift against the target's template and, when
// requested and enabled, overwrites it. Failures are logged, never returned.
func (s *PlannerService) reconcileTemplate(ctx context.Context, plan *production.ProductionPlan, save bool, actorID uuid.UUID, resp *PlanResponse) {
	tmpl, err := s.templates.FindByTarget(ctx, plan.TargetMaterialID)
	if err != nil {
		s.logger.Warn("failed to load product template",
			zap.String("target_material_id", plan.TargetMaterialID.String()),
			zap.Error(err),
		)
		return
	}
	drift := production.DetectTemplateDrift(tmpl, plan)
	resp.TemplateDrift = &drift
	if !save || !drift {
		return
	}
	saved := false
	resp.TemplateSaved = &saved
	if !s.opts.SaveTemplateOnDrift {
		s.logger.Info("template save requested but disabled by configuration",
			zap.String("plan_id", plan.ID.String()),
		)
		return
	}
	if err := s.saveTemplate(ctx, plan, actorID); err != nil {
		s.logger.Warn("failed to save product template; plan kept",
			zap.String("plan_id", plan.ID.String()),
			zap.String("target_material_id", plan.TargetMaterialID.String()),
			zap.Error(err),
		)
		return
	}
	saved = true
}

func (s *PlannerService) saveTemplate(ctx context.Context, plan *production.ProductionPlan, actorID uuid.UUID) error {
	tmpl, err := production.TemplateFromPlan(plan, actorID)
	if err != nil {
		return err
	}
	return s.templates.Save(ctx, tmpl)
}

// SaveTemplate overwrites the target's template with the inputs of a plan
func (s *PlannerService) SaveTemplate(ctx context.Context, targetID uuid.UUID, req SaveTemplateRequest, actorID uuid.UUID) (*TemplateResponse, error) {
	plan, err := s.plans.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.TargetMaterialID != targetID {
		return nil, shared.NewDomainErrorf(shared.CodeValidationFailed,
			"plan %s targets material %s, not %s", plan.ID, plan.TargetMaterialID, targetID)
	}
	if err := s.saveTemplate(ctx, plan, actorID); err != nil {
		return nil, err
	}
	tmpl, err := s.templates.FindByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, shared.ErrNotFound
	}
	resp := ToTemplateResponse(tmpl)
	return &resp, nil
}

// LoadTemplate returns the template of a target material. A missing template
// is reported as Found=false, not as an error.
func (s *PlannerService) LoadTemplate(ctx context.Context, targetID uuid.UUID) (*TemplateLookupResponse, error) {
	tmpl, err := s.templates.FindByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return &TemplateLookupResponse{Found: false}, nil
	}
	resp := ToTemplateResponse(tmpl)
	return &TemplateLookupResponse{Found: true, Template: &resp}, nil
}

// ListTemplates lists stored templates
func (s *PlannerService) ListTemplates(ctx context.Context, page, pageSize int) ([]TemplateResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	items, total, err := s.templates.FindAll(ctx, shared.Filter{Page: page, PageSize: pageSize, OrderBy: "updated_at", OrderDir: "desc"})
	if err != nil {
		return nil, 0, err
	}
	out := make([]TemplateResponse, len(items))
	for i := range items {
		out[i] = ToTemplateResponse(&items[i])
	}
	return out, total, nil
}

// CheckDrift compares candidate lines with the target's template
func (s *PlannerService) CheckDrift(ctx context.Context, targetID uuid.UUID, req DriftRequest) (*DriftResponse, error) {
	tmpl, err := s.templates.FindByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	resp := &DriftResponse{TargetMaterialID: targetID, TemplateFound: tmpl != nil, Drift: true}
	if tmpl != nil {
		resp.Drift = production.DetectDrift(tmpl.Lines, toTemplateLines(req.Lines),
			tmpl.EstimatedProductionTimeMinutes, req.EstimatedProductionTimeMinutes)
	}
	return resp, nil
}

// Schedule moves a draft plan to Planned
func (s *PlannerService) Schedule(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	return s.transition(ctx, id, func(_ context.Context, _ *txn.Unit, p *production.ProductionPlan) error {
		return p.Schedule()
	})
}

// Start moves a Draft or Planned plan to InProgress after checking it can
// still be produced from current stock. The ledger is not touched.
func (s *PlannerService) Start(ctx context.Context, id, actorID uuid.UUID) (*PlanResponse, error) {
	return s.transition(ctx, id, func(ctx context.Context, u *txn.Unit, p *production.ProductionPlan) error {
		stock, err := snapshots(ctx, u.Repos.Materials(), p.MaterialIDs())
		if err != nil {
			return err
		}
		_, err = p.Start(stock, actorID)
		return err
	})
}

// Cancel cancels a plan that is neither completed nor cancelled
func (s *PlannerService) Cancel(ctx context.Context, id, actorID uuid.UUID) (*PlanResponse, error) {
	return s.transition(ctx, id, func(_ context.Context, _ *txn.Unit, p *production.ProductionPlan) error {
		return p.Cancel(actorID)
	})
}

// CheckAvailability refreshes a plan's stock snapshots and returns the evaluation
func (s *PlannerService) CheckAvailability(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	var availability production.Availability
	resp, err := s.transition(ctx, id, func(ctx context.Context, u *txn.Unit, p *production.ProductionPlan) error {
		stock, err := snapshots(ctx, u.Repos.Materials(), p.MaterialIDs())
		if err != nil {
			return err
		}
		availability, err = p.RefreshAvailability(stock)
		return err
	})
	if err != nil {
		return nil, err
	}
	avail := toAvailabilityResponse(availability)
	resp.Availability = &avail
	return resp, nil
}

func (s *PlannerService) transition(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, u *txn.Unit, p *production.ProductionPlan) error) (*PlanResponse, error) {
	var plan *production.ProductionPlan
	err := s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		p, err := u.Repos.Plans().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, u, p); err != nil {
			return err
		}
		if err := u.Repos.Plans().SaveWithLock(ctx, p); err != nil {
			return err
		}
		u.Collect(p)
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(plan)
	return &resp, nil
}

// GetByID retrieves a plan with its availability from stored snapshots
func (s *PlannerService) GetByID(ctx context.Context, id uuid.UUID) (*PlanResponse, error) {
	p, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(p)
	avail := toAvailabilityResponse(p.Availability())
	resp.Availability = &avail
	return &resp, nil
}

// List lists plans with filtering and pagination
func (s *PlannerService) List(ctx context.Context, filter PlanListFilter) ([]PlanListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := production.PlanFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		TargetMaterialID: filter.TargetMaterialID,
	}
	if filter.Variant != "" {
		v := production.Variant(filter.Variant)
		domainFilter.Variant = &v
	}
	if filter.Status != "" {
		st := production.Status(filter.Status)
		domainFilter.Status = &st
	}

	plans, total, err := s.plans.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToPlanListItemResponses(plans), total, nil
}
