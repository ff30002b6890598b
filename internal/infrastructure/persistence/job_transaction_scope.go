package persistence

import (
	"context"

	appjob "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"gorm.io/gorm"
)

// GormTransactionScope implements the job TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. Returning an error rolls it back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appjob.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// JobRepo returns the job repository scoped to the current transaction.
func (r *gormTransactionalRepositories) JobRepo() job.JobRepository {
	return NewGormJobRepository(r.tx)
}

// BatchRepo returns the batch repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BatchRepo() job.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

var (
	_ appjob.TransactionScope          = (*GormTransactionScope)(nil)
	_ appjob.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
