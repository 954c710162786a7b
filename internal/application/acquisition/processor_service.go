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

// ProcessorOptions are the processing policies taken from configuration
type ProcessorOptions struct {
	// AllowOverProcessing accepts runs that take an item's processed total past
	// its received quantity; such runs are logged and flagged instead of rejected.
	AllowOverProcessing bool
}

// ProcessorService turns received recyclables into raw-material stock
type ProcessorService struct {
	runner       *txn.AtomicRunner
	acquisitions acquisition.AcquisitionRepository
	processed    acquisition.ProcessedMaterialRepository
	opts         ProcessorOptions
	logger       *zap.Logger
}

// NewProcessorService creates a new ProcessorService
func NewProcessorService(
	runner *txn.AtomicRunner,
	acquisitions acquisition.AcquisitionRepository,
	processed acquisition.ProcessedMaterialRepository,
	opts ProcessorOptions,
	logger *zap.Logger,
) *ProcessorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessorService{
		runner:       runner,
		acquisitions: acquisitions,
		processed:    processed,
		opts:         opts,
		logger:       logger,
	}
}

// Process credits each output to the ledger and records its provenance.
// The recyclable stock itself is not debited.
func (s *ProcessorService) Process(ctx context.Context, id uuid.UUID, req ProcessRequest, actorID uuid.UUID) (*ProcessingResponse, error) {
	if actorID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "acting user is required")
	}
	outputs := make([]acquisition.ProcessingOutput, 0, len(req.Outputs))
	lockIDs := make([]uuid.UUID, 0, len(req.Outputs))
	for _, o := range req.Outputs {
		ref := ledger.MaterialRef(o.MaterialID, o.NewMaterial)
		if !ref.IsNew() && ref.ID() != uuid.Nil {
			lockIDs = append(lockIDs, ref.ID())
		}
		outputs = append(outputs, acquisition.ProcessingOutput{
			SourceItemID: o.SourceItemID,
			Material:     ref,
			Quantity:     o.Quantity,
			Unit:         o.Unit,
		})
	}

	var (
		result  *acquisition.Acquisition
		records []acquisition.ProcessedMaterial
		summary []acquisition.ItemProcessing
	)
	err := s.runner.Run(ctx, lockIDs, func(ctx context.Context, u *txn.Unit) error {
		a, err := u.Repos.Acquisitions().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		for i := range outputs {
			out := &outputs[i]
			if item := a.GetItem(out.SourceItemID); item != nil && out.Unit == "" {
				out.Unit = item.Unit
			}
			if spec, ok := out.Material.Spec(); ok && spec.Unit == "" {
				spec.Unit = out.Unit
				out.Material = material.New(spec)
			}
		}
		existing, err := u.Repos.ProcessedMaterials().FindByAcquisition(ctx, a.ID)
		if err != nil {
			return err
		}
		summary, err = a.CheckProcessing(outputs, existing, s.opts.AllowOverProcessing)
		if err != nil {
			return err
		}

		posting := ledger.NewPosting(u)
		batch := make([]acquisition.ProcessedMaterial, 0, len(outputs))
		for i, out := range outputs {
			m, err := posting.Resolve(ctx, out.Material, material.KindRawMaterial, actorID)
			if err != nil {
				return fmt.Errorf("output %d: %w", i+1, err)
			}
			if m.Kind != material.KindRawMaterial {
				return shared.NewDomainErrorf(shared.CodeValidationFailed,
					"output %d: material %s is %s, processing produces %s", i+1, m.Name, m.Kind, material.KindRawMaterial)
			}
			record := acquisition.NewProcessedMaterial(a.ID, out.SourceItemID, m.ID, out.Quantity, out.Unit, actorID)
			_, err = posting.Credit(ctx, m.ID, out.Quantity, material.Provenance{
				SourceType:   material.SourceRecyclableProcessing,
				SourceID:     a.ID,
				SourceLineID: &record.ID,
				ActorID:      actorID,
			})
			if err != nil {
				return err
			}
			batch = append(batch, *record)
		}
		if err := u.Repos.ProcessedMaterials().CreateBatch(ctx, batch); err != nil {
			return err
		}

		a.RecordProcessing(batch, actorID)
		if err := u.Repos.Acquisitions().SaveWithLock(ctx, a); err != nil {
			return err
		}
		u.Collect(a)

		result = a
		records = append(existing, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toProcessingResponse(result, records, summary)
	for _, item := range summary {
		if !item.OverProcessed {
			continue
		}
		warning := fmt.Sprintf("item %s processed %s exceeds received %s", item.ItemID, item.Processed, item.Received)
		resp.Warnings = append(resp.Warnings, warning)
		s.logger.Warn("recyclable item over-processed",
			zap.String("acquisition_id", result.ID.String()),
			zap.String("item_id", item.ItemID.String()),
			zap.String("received", item.Received.String()),
			zap.String("processed", item.Processed.String()),
		)
	}
	return &resp, nil
}

// GetProcessing returns the processing records and per-item totals of an acquisition
func (s *ProcessorService) GetProcessing(ctx context.Context, id uuid.UUID) (*ProcessingResponse, error) {
	a, err := s.acquisitions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := s.processed.FindByAcquisition(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	resp := toProcessingResponse(a, records, a.SummarizeProcessing(records))
	return &resp, nil
}
