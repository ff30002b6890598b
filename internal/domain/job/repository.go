package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// JobFilter narrows job listings
type JobFilter struct {
	shared.Filter
	UserID      uuid.UUID
	Marketplace marketplace.Marketplace
	Action      marketplace.Action
	Statuses    []Status
	BatchID     *uuid.UUID
	ProductID   *uuid.UUID
}

// JobReader defines read operations on marketplace jobs
type JobReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*MarketplaceJob, error)
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*MarketplaceJob, error)
	FindAll(ctx context.Context, filter JobFilter) ([]MarketplaceJob, int64, error)
	FindActiveForProduct(ctx context.Context, userID uuid.UUID, m marketplace.Marketplace, a marketplace.Action, productID uuid.UUID) (*MarketplaceJob, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID, statuses ...Status) ([]MarketplaceJob, error)
	FindStaleRunning(ctx context.Context, startedBefore time.Time) ([]MarketplaceJob, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (StatusCounts, error)
	CountByBatch(ctx context.Context, batchID uuid.UUID) (StatusCounts, error)
	GetStatus(ctx context.Context, id uuid.UUID) (Status, error)
}

// JobWriter defines write operations on marketplace jobs
type JobWriter interface {
	// Create inserts a new job. A second active job for the same product and
	// action fails with ErrDuplicateJob.
	Create(ctx context.Context, j *MarketplaceJob) error
	Save(ctx context.Context, j *MarketplaceJob) error
	// UpdateFrom writes j only while the stored status is still from.
	// ErrJobConflict means another writer moved the job first.
	UpdateFrom(ctx context.Context, j *MarketplaceJob, from Status) error
	SaveBatch(ctx context.Context, jobs []*MarketplaceJob) error
	// ClaimNext locks the next runnable job with FOR UPDATE SKIP LOCKED and marks it RUNNING.
	// Returns nil when nothing is runnable.
	ClaimNext(ctx context.Context, marketplaces []marketplace.Marketplace, now time.Time) (*MarketplaceJob, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}

// JobRepository combines reader and writer
type JobRepository interface {
	JobReader
	JobWriter
}

// BatchFilter narrows batch listings
type BatchFilter struct {
	shared.Filter
	UserID      uuid.UUID
	Marketplace marketplace.Marketplace
	Statuses    []BatchStatus
}

// BatchRepository persists batch jobs
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BatchJob, error)
	FindByReference(ctx context.Context, userID uuid.UUID, batchID string) (*BatchJob, error)
	FindAll(ctx context.Context, filter BatchFilter) ([]BatchJob, int64, error)
	FindActive(ctx context.Context) ([]BatchJob, error)
	Save(ctx context.Context, b *BatchJob) error
	// UpdateFrom writes b only while the stored status is still from (ErrBatchConflict otherwise)
	UpdateFrom(ctx context.Context, b *BatchJob, from BatchStatus) error
}

// ExecutionLock is a held advisory lock on a running job
type ExecutionLock interface {
	Release(ctx context.Context) error
}

// ExecutionLocker coordinates job execution through advisory locks
type ExecutionLocker interface {
	// TryAcquire takes the job's lock; ErrLockUnavailable when another executor holds it
	TryAcquire(ctx context.Context, jobID uuid.UUID) (ExecutionLock, error)
	// IsHeld probes whether some executor holds the job's lock
	IsHeld(ctx context.Context, jobID uuid.UUID) (bool, error)
}
