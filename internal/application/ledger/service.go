package ledger

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options are the ledger policies taken from configuration
type Options struct {
	// AllowNegativeStock lets manual debits take a material below zero
	AllowNegativeStock bool
}

// Service exposes the inventory ledger: material registration, stock
// queries and manual adjustments. Other services post through Posting
// inside their own atomic units.
type Service struct {
	runner    *txn.AtomicRunner
	materials material.MaterialRepository
	entries   material.LedgerEntryRepository
	opts      Options
	logger    *zap.Logger
}

// NewService creates a new ledger Service
func NewService(
	runner *txn.AtomicRunner,
	materials material.MaterialRepository,
	entries material.LedgerEntryRepository,
	opts Options,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		runner:    runner,
		materials: materials,
		entries:   entries,
		opts:      opts,
		logger:    logger,
	}
}

// CreateMaterial registers a new material with zero stock
func (s *Service) CreateMaterial(ctx context.Context, req CreateMaterialRequest, actorID uuid.UUID) (*MaterialResponse, error) {
	var created *material.Material
	err := s.runner.Run(ctx, nil, func(ctx context.Context, u *txn.Unit) error {
		m, err := NewPosting(u).CreateMaterial(ctx, req.Spec(), actorID)
		created = m
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(created)
	return &resp, nil
}

// GetMaterial retrieves a material by id
func (s *Service) GetMaterial(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	m, err := s.materials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// ListMaterials lists materials with filtering and pagination
func (s *Service) ListMaterials(ctx context.Context, filter MaterialListFilter) ([]MaterialResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := material.MaterialFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   filter.Search,
		},
		IsActive: filter.IsActive,
	}
	if filter.Kind != "" {
		kind := material.Kind(filter.Kind)
		domainFilter.Kind = &kind
	}

	items, total, err := s.materials.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMaterialResponses(items), total, nil
}

// ListLowStock lists active materials whose stock is under their minimum level
func (s *Service) ListLowStock(ctx context.Context) ([]MaterialResponse, error) {
	items, err := s.materials.FindBelowMinimum(ctx)
	if err != nil {
		return nil, err
	}
	return ToMaterialResponses(items), nil
}

// UpdateMaterial changes descriptive attributes. Quantity is never edited here.
func (s *Service) UpdateMaterial(ctx context.Context, id uuid.UUID, req UpdateMaterialRequest) (*MaterialResponse, error) {
	var updated *material.Material
	err := s.runner.Run(ctx, []uuid.UUID{id}, func(ctx context.Context, u *txn.Unit) error {
		m, err := u.Repos.Materials().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := m.Update(req.Update()); err != nil {
			return err
		}
		if err := u.Repos.Materials().SaveWithLock(ctx, m); err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(updated)
	return &resp, nil
}

// GetAvailable returns the current quantity on hand of a material
func (s *Service) GetAvailable(ctx context.Context, id uuid.UUID) (*AvailableResponse, error) {
	m, err := s.materials.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AvailableResponse{MaterialID: m.ID, Unit: m.Unit, Available: m.Quantity}, nil
}

// Credit records a manual stock increase
func (s *Service) Credit(ctx context.Context, id uuid.UUID, req AdjustStockRequest, actorID uuid.UUID) (*EntryResponse, error) {
	return s.adjust(ctx, id, req, actorID, material.DirectionCredit)
}

// Debit records a manual stock decrease. It may take stock below zero only
// when negative stock is enabled.
func (s *Service) Debit(ctx context.Context, id uuid.UUID, req AdjustStockRequest, actorID uuid.UUID) (*EntryResponse, error) {
	return s.adjust(ctx, id, req, actorID, material.DirectionDebit)
}

func (s *Service) adjust(ctx context.Context, id uuid.UUID, req AdjustStockRequest, actorID uuid.UUID, dir material.Direction) (*EntryResponse, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}
	prov := material.Provenance{
		SourceType: material.SourceManualAdjustment,
		SourceID:   id,
		ActorID:    actorID,
		Reason:     req.Reason,
	}

	var entry *material.LedgerEntry
	err := s.runner.Run(ctx, []uuid.UUID{id}, func(ctx context.Context, u *txn.Unit) error {
		var err error
		posting := NewPosting(u)
		if dir == material.DirectionCredit {
			entry, err = posting.Credit(ctx, id, req.Quantity, prov)
		} else {
			entry, err = posting.Debit(ctx, id, req.Quantity, prov, s.opts.AllowNegativeStock)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("manual stock adjustment",
		zap.String("material_id", id.String()),
		zap.String("direction", dir.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("balance_after", entry.BalanceAfter.String()),
		zap.String("actor_id", actorID.String()),
	)
	resp := ToEntryResponse(entry)
	return &resp, nil
}

// History lists the ledger entries of one material, newest first
func (s *Service) History(ctx context.Context, id uuid.UUID, filter EntryListFilter) ([]EntryResponse, int64, error) {
	if _, err := s.materials.FindByID(ctx, id); err != nil {
		return nil, 0, err
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	domainFilter := material.EntryFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "occurred_at",
			OrderDir: "desc",
		},
		SourceID: filter.SourceID,
	}
	if filter.SourceType != "" {
		st := material.SourceType(filter.SourceType)
		domainFilter.SourceType = &st
	}
	entries, total, err := s.entries.FindByMaterial(ctx, id, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToEntryResponses(entries), total, nil
}

// EntriesForSource lists every entry written by one source document
func (s *Service) EntriesForSource(ctx context.Context, sourceType material.SourceType, sourceID uuid.UUID) ([]EntryResponse, error) {
	entries, err := s.entries.FindBySource(ctx, sourceType, sourceID)
	if err != nil {
		return nil, err
	}
	return ToEntryResponses(entries), nil
}

// Valuation totals stock value per material kind across active materials
func (s *Service) Valuation(ctx context.Context) (*ValuationResponse, error) {
	active := true
	items, _, err := s.materials.FindAll(ctx, material.MaterialFilter{
		Filter:   shared.Filter{Page: 1, PageSize: 0},
		IsActive: &active,
	})
	if err != nil {
		return nil, err
	}

	byKind := make(map[material.Kind]*KindValuation)
	total := decimal.Zero
	for i := range items {
		m := &items[i]
		kv, ok := byKind[m.Kind]
		if !ok {
			kv = &KindValuation{Kind: string(m.Kind), TotalQuantity: decimal.Zero, TotalValue: decimal.Zero}
			byKind[m.Kind] = kv
		}
		value := m.Quantity.Mul(m.UnitCost)
		kv.MaterialCount++
		kv.TotalQuantity = kv.TotalQuantity.Add(m.Quantity)
		kv.TotalValue = kv.TotalValue.Add(value)
		total = total.Add(value)
	}

	resp := &ValuationResponse{Kinds: make([]KindValuation, 0, len(byKind)), TotalValue: total}
	for _, kv := range byKind {
		resp.Kinds = append(resp.Kinds, *kv)
	}
	sort.Slice(resp.Kinds, func(i, j int) bool { return resp.Kinds[i].Kind < resp.Kinds[j].Kind })
	return resp, nil
}
