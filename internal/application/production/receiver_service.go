package production

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReceiverOptions are the completion policies taken from configuration
type ReceiverOptions struct {
	// CreditTargetWithExplicitOutputs also credits the plan's target by the
	// actual quantity when explicit outputs are given and none of them is
	// the target.
	CreditTargetWithExplicitOutputs bool
}

// ReceiverService completes in-progress plans against the ledger
type ReceiverService struct {
	runner *txn.AtomicRunner
	plans  production.PlanRepository
	opts   ReceiverOptions
	logger *zap.Logger
}

// NewReceiverService creates a new ReceiverService
func NewReceiverService(runner *txn.AtomicRunner, plans production.PlanRepository, opts ReceiverOptions, logger *zap.Logger) *ReceiverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiverService{
		runner: runner,
		plans:  plans,
		opts:   opts,
		logger: logger,
	}
}

type plannedOutput struct {
	ref      material.Ref
	quantity decimal.Decimal
}

// Complete debits every required material by its per-unit quantity times the
// actual quantity produced, credits the outputs and marks the plan completed,
// all in one atomic unit. Availability is re-read under lock inside that unit;
// if any input is short the whole completion fails with INSUFFICIENT_STOCK and
// the plan stays in progress.
func (s *ReceiverService) Complete(ctx context.Context, id uuid.UUID, req CompletePlanRequest, actorID uuid.UUID) (*PlanResponse, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}
	current, err := s.plans.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	outputs, err := s.planOutputs(current, req)
	if err != nil {
		return nil, err
	}

	lockIDs := append(current.MaterialIDs(), current.TargetMaterialID)
	for _, o := range outputs {
		if !o.ref.IsNew() {
			lockIDs = append(lockIDs, o.ref.ID())
		}
	}

	var completed *production.ProductionPlan
	err = s.runner.Run(ctx, lockIDs, func(ctx context.Context, u *txn.Unit) error {
		p, err := u.Repos.Plans().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		consumption, err := p.Consumption(req.ActualQuantityProduced)
		if err != nil {
			return err
		}

		posting := ledger.NewPosting(u)
		for _, c := range consumption {
			lineID := c.RequiredLine
			_, err := posting.Debit(ctx, c.MaterialID, c.Quantity, material.Provenance{
				SourceType:   material.SourceProductionConsumption,
				SourceID:     p.ID,
				SourceLineID: &lineID,
				ActorID:      actorID,
			}, false)
			if err != nil {
				return err
			}
		}

		produced := make([]production.ProducedOutput, 0, len(outputs))
		for i, o := range outputs {
			m, err := posting.Resolve(ctx, o.ref, p.Variant.TargetKind(), actorID)
			if err != nil {
				return fmt.Errorf("output %d: %w", i+1, err)
			}
			_, err = posting.Credit(ctx, m.ID, o.quantity, material.Provenance{
				SourceType: material.SourceProductionOutput,
				SourceID:   p.ID,
				ActorID:    actorID,
			})
			if err != nil {
				return err
			}
			produced = append(produced, production.ProducedOutput{
				MaterialID:   m.ID,
				MaterialName: m.Name,
				Quantity:     o.quantity,
				Unit:         m.Unit,
			})
		}

		err = p.Complete(production.Completion{
			ActualQuantity:    req.ActualQuantityProduced,
			ActualTimeMinutes: req.ActualProductionTimeMinutes,
			Notes:             req.Notes,
			Outputs:           produced,
		}, actorID)
		if err != nil {
			return err
		}
		if err := u.Repos.Plans().SaveWithLock(ctx, p); err != nil {
			return err
		}
		u.Collect(p)
		completed = p
		return nil
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Info("plan completion rejected for insufficient stock",
				zap.String("plan_id", id.String()),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("production plan completed",
		zap.String("plan_id", completed.ID.String()),
		zap.String("actual_quantity", req.ActualQuantityProduced.String()),
		zap.Int("outputs", len(completed.ProducedOutputs)),
		zap.String("actor_id", actorID.String()),
	)
	resp := ToPlanResponse(completed)
	return &resp, nil
}

// planOutputs decides what a completion credits. Without explicit outputs the
// target receives the actual quantity. Explicit outputs replace that unless
// CreditTargetWithExplicitOutputs is set and the target is not listed.
func (s *ReceiverService) planOutputs(p *production.ProductionPlan, req CompletePlanRequest) ([]plannedOutput, error) {
	target := plannedOutput{ref: material.Existing(p.TargetMaterialID), quantity: req.ActualQuantityProduced}
	if len(req.ProducedMaterials) == 0 {
		return []plannedOutput{target}, nil
	}

	outputs := make([]plannedOutput, 0, len(req.ProducedMaterials)+1)
	seen := make(map[uuid.UUID]struct{}, len(req.ProducedMaterials))
	targetListed := false
	for i, r := range req.ProducedMaterials {
		ref := ledger.MaterialRef(r.MaterialID, r.NewMaterial)
		if err := ref.Validate(); err != nil {
			return nil, fmt.Errorf("output %d: %w", i+1, err)
		}
		if err := shared.RequirePositive("produced quantity", r.Quantity); err != nil {
			return nil, fmt.Errorf("output %d: %w", i+1, err)
		}
		if !ref.IsNew() {
			if _, dup := seen[ref.ID()]; dup {
				return nil, shared.NewDomainErrorf(shared.CodeDuplicateMaterial, "material %s is listed more than once as an output", ref.ID())
			}
			seen[ref.ID()] = struct{}{}
			if ref.ID() == p.TargetMaterialID {
				targetListed = true
			}
		}
		outputs = append(outputs, plannedOutput{ref: ref, quantity: r.Quantity})
	}
	if s.opts.CreditTargetWithExplicitOutputs && !targetListed {
		outputs = append(outputs, target)
	}
	return outputs, nil
}
