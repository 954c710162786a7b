package acquisition

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/ledger"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LifecycleService drives acquisitions from draft to received or cancelled
type LifecycleService struct {
	runner       *txn.AtomicRunner
	acquisitions acquisition.AcquisitionRepository
	materials    material.MaterialRepository
	logger       *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(
	runner *txn.AtomicRunner,
	acquisitions acquisition.AcquisitionRepository,
	materials material.MaterialRepository,
	logger *zap.Logger,
) *LifecycleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		runner:       runner,
		acquisitions: acquisitions,
		materials:    materials,
		logger:       logger,
	}
}

// CreateDraft validates the items and stores a new draft acquisition
func (s *LifecycleService) CreateDraft(ctx context.Context, req CreateAcquisitionRequest, actorID uuid.UUID) (*AcquisitionResponse, error) {
	kind := acquisition.Kind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewDomainErrorf(shared.CodeValidationFailed, "invalid acquisition kind: %q", req.Kind)
	}
	items, err := s.buildItems(ctx, kind, req.Items)
	if err != nil {
		return nil, err
	}

	// Built per attempt so a retried unit still carries the creation event
	var a *acquisition.Acquisition
	err = s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		draft, err := acquisition.NewAcquisition(acquisition.Draft{
			Title:      req.Title,
			Kind:       kind,
			SupplierID: req.SupplierID,
			DueDate:    req.DueDate,
			Notes:      req.Notes,
			Items:      items,
		}, actorID)
		if err != nil {
			return err
		}
		if err := u.Repos.Acquisitions().Create(ctx, draft); err != nil {
			return err
		}
		u.Collect(draft)
		a = draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToAcquisitionResponse(a)
	return &resp, nil
}

// Update replaces the fields and items of a draft
func (s *LifecycleService) Update(ctx context.Context, id uuid.UUID, req UpdateAcquisitionRequest) (*AcquisitionResponse, error) {
	current, err := s.acquisitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsDraft() {
		return nil, shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot edit acquisition in %s status", current.Status)
	}
	items, err := s.buildItems(ctx, current.Kind, req.Items)
	if err != nil {
		return nil, err
	}

	var updated *acquisition.Acquisition
	err = s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		a, err := u.Repos.Acquisitions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		err = a.Update(acquisition.Draft{
			Title:      req.Title,
			Kind:       acquisition.Kind(req.Kind),
			SupplierID: req.SupplierID,
			DueDate:    req.DueDate,
			Notes:      req.Notes,
			Items:      items,
		})
		if err != nil {
			return err
		}
		if err := u.Repos.Acquisitions().SaveWithLock(ctx, a); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToAcquisitionResponse(updated)
	return &resp, nil
}

// buildItems converts request lines into domain inputs. Existing materials
// must exist and match the kind the acquisition brings in.
func (s *LifecycleService) buildItems(ctx context.Context, kind acquisition.Kind, reqs []ItemRequest) ([]acquisition.ItemInput, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		if r.NewMaterial == nil && r.MaterialID != nil {
			ids = append(ids, *r.MaterialID)
		}
	}
	known := make(map[uuid.UUID]*material.Material, len(ids))
	if len(ids) > 0 {
		found, err := s.materials.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range found {
			known[found[i].ID] = &found[i]
		}
	}

	items := make([]acquisition.ItemInput, 0, len(reqs))
	for i, r := range reqs {
		in := acquisition.ItemInput{
			Material:        ledger.MaterialRef(r.MaterialID, r.NewMaterial),
			OrderedQuantity: r.OrderedQuantity,
			Unit:            r.Unit,
			UnitCost:        r.UnitCost,
		}
		if r.NewMaterial != nil && in.Unit == "" {
			in.Unit = r.NewMaterial.Unit
		}
		if !in.Material.IsNew() && in.Material.ID() != uuid.Nil {
			m, ok := known[in.Material.ID()]
			if !ok {
				return nil, shared.NewDomainErrorf(shared.CodeMaterialNotFound, "item %d: material %s not found", i+1, in.Material.ID())
			}
			if m.Kind != kind.MaterialKind() {
				return nil, shared.NewDomainErrorf(shared.CodeValidationFailed,
					"item %d: material %s is %s, acquisition brings in %s", i+1, m.Name, m.Kind, kind.MaterialKind())
			}
			in.MaterialName = m.Name
			if in.Unit == "" {
				in.Unit = m.Unit
			}
			if in.UnitCost.IsZero() {
				in.UnitCost = m.UnitCost
			}
		}
		items = append(items, in)
	}
	return items, nil
}

// Receive records what arrived, creates pending new materials and credits
// the ledger with every received quantity in one atomic unit.
func (s *LifecycleService) Receive(ctx context.Context, id uuid.UUID, req ReceiveRequest, actorID uuid.UUID) (*AcquisitionResponse, error) {
	current, err := s.acquisitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lockIDs := make([]uuid.UUID, 0, len(current.Items))
	for _, item := range current.Items {
		if item.MaterialID != nil {
			lockIDs = append(lockIDs, *item.MaterialID)
		}
	}
	lines := make([]acquisition.ReceiveLine, 0, len(req.Items))
	for _, r := range req.Items {
		lines = append(lines, acquisition.ReceiveLine{ItemID: r.ItemID, Quantity: r.ReceivedQuantity})
	}

	var received *acquisition.Acquisition
	err = s.runner.Run(ctx, lockIDs, func(ctx context.Context, u *txn.Unit) error {
		a, err := u.Repos.Acquisitions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !a.IsDraft() {
			return shared.NewDomainErrorf(shared.CodeInvalidTransition, "cannot receive acquisition in %s status", a.Status)
		}

		posting := ledger.NewPosting(u)
		for i := range a.Items {
			item := &a.Items[i]
			if item.NewMaterial == nil {
				continue
			}
			m, err := posting.Resolve(ctx, item.Ref(), a.Kind.MaterialKind(), actorID)
			if err != nil {
				return fmt.Errorf("item %d: %w", item.LineNo, err)
			}
			if err := a.AssignMaterial(item.ID, m.ID); err != nil {
				return err
			}
		}

		receipts, err := a.Receive(lines, actorID)
		if err != nil {
			return err
		}
		if err := u.Repos.Acquisitions().SaveWithLock(ctx, a); err != nil {
			return err
		}
		for _, r := range receipts {
			if !r.Quantity.IsPositive() {
				continue
			}
			itemID := r.ItemID
			_, err := posting.Credit(ctx, r.MaterialID, r.Quantity, material.Provenance{
				SourceType:   material.SourceAcquisitionReceipt,
				SourceID:     a.ID,
				SourceLineID: &itemID,
				ActorID:      actorID,
			})
			if err != nil {
				return err
			}
		}
		u.Collect(a)
		received = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("acquisition received",
		zap.String("acquisition_id", received.ID.String()),
		zap.String("status", received.Status.String()),
		zap.String("total_received", received.TotalReceivedQuantity().String()),
		zap.String("actor_id", actorID.String()),
	)
	resp := ToAcquisitionResponse(received)
	return &resp, nil
}

// Cancel cancels a draft without touching the ledger
func (s *LifecycleService) Cancel(ctx context.Context, id, actorID uuid.UUID) (*AcquisitionResponse, error) {
	var cancelled *acquisition.Acquisition
	err := s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		a, err := u.Repos.Acquisitions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := a.Cancel(actorID); err != nil {
			return err
		}
		if err := u.Repos.Acquisitions().SaveWithLock(ctx, a); err != nil {
			return err
		}
		u.Collect(a)
		cancelled = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToAcquisitionResponse(cancelled)
	return &resp, nil
}

// GetByID retrieves an acquisition with its items
func (s *LifecycleService) GetByID(ctx context.Context, id uuid.UUID) (*AcquisitionResponse, error) {
	a, err := s.acquisitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToAcquisitionResponse(a)
	return &resp, nil
}

// List lists acquisitions with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter AcquisitionListFilter) ([]AcquisitionListItemResponse, int64, error) {
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

	domainFilter := acquisition.Filter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
	}
	if filter.Kind != "" {
		kind := acquisition.Kind(filter.Kind)
		domainFilter.Kind = &kind
	}
	if filter.Status != "" {
		status := acquisition.Status(filter.Status)
		domainFilter.Status = &status
	}

	items, total, err := s.acquisitions.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToAcquisitionListItemResponses(items), total, nil
}
