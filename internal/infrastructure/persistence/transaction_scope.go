package persistence

import (
	"context"

	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/domain/acquisition"
	"github.com/matflow/backend/internal/domain/material"
	"github.com/matflow/backend/internal/domain/production"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolling back when it fails.
// Deadlocks and serialization failures come back as CONCURRENCY_CONFLICT.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return classifyTxError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// Materials returns the material repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Materials() material.MaterialRepository {
	return NewGormMaterialRepository(r.tx)
}

// Entries returns the ledger entry repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Entries() material.LedgerEntryRepository {
	return NewGormLedgerEntryRepository(r.tx)
}

// Acquisitions returns the acquisition repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Acquisitions() acquisition.AcquisitionRepository {
	return NewGormAcquisitionRepository(r.tx)
}

// ProcessedMaterials returns the processing record repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProcessedMaterials() acquisition.ProcessedMaterialRepository {
	return NewGormProcessedMaterialRepository(r.tx)
}

// Plans returns the production plan repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Plans() production.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

// Templates returns the product template repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Templates() production.TemplateRepository {
	return NewGormTemplateRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ txn.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ txn.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
