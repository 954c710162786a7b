package txn

import (
	"context"

	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
)

// TransactionScope provides transactional access to every repository.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories bound to one transaction.
//
// Aggregate boundary notes:
//   - Materials: the Material aggregate. Quantity changes go through the
//     ledger posting so that each one is paired with a ledger entry.
//   - Entries: append-only ledger entries.
//   - Acquisitions: the Acquisition aggregate including its items.
//   - ProcessedMaterials: provenance rows written by recyclable processing.
//   - Plans: the ProductionPlan aggregate including its required materials.
//   - Templates: one product template per target material.
type TransactionalRepositories interface {
	Materials() material.MaterialRepository
	Entries() material.LedgerEntryRepository
	Acquisitions() acquisition.AcquisitionRepository
	ProcessedMaterials() acquisition.ProcessedMaterialRepository
	Plans() production.PlanRepository
	Templates() production.TemplateRepository
}
