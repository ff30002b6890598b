package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// ============================================================================
// Mocks
// ============================================================================

// MockJobRepository is a mock implementation of job.JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) FindAll(ctx context.Context, filter job.JobFilter) ([]job.MarketplaceJob, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]job.MarketplaceJob), args.Get(1).(int64), args.Error(2)
}

func (m *MockJobRepository) FindActiveForProduct(ctx context.Context, userID uuid.UUID, mk marketplace.Marketplace, a marketplace.Action, productID uuid.UUID) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, userID, mk, a, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) FindByBatch(ctx context.Context, batchID uuid.UUID, statuses ...job.Status) ([]job.MarketplaceJob, error) {
	args := m.Called(ctx, batchID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) FindStaleRunning(ctx context.Context, startedBefore time.Time) ([]job.MarketplaceJob, error) {
	args := m.Called(ctx, startedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (job.StatusCounts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(job.StatusCounts), args.Error(1)
}

func (m *MockJobRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (job.StatusCounts, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(job.StatusCounts), args.Error(1)
}

func (m *MockJobRepository) GetStatus(ctx context.Context, id uuid.UUID) (job.Status, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(job.Status), args.Error(1)
}

func (m *MockJobRepository) Save(ctx context.Context, j *job.MarketplaceJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) Create(ctx context.Context, j *job.MarketplaceJob) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) UpdateFrom(ctx context.Context, j *job.MarketplaceJob, from job.Status) error {
	args := m.Called(ctx, j, from)
	return args.Error(0)
}

func (m *MockJobRepository) SaveBatch(ctx context.Context, jobs []*job.MarketplaceJob) error {
	args := m.Called(ctx, jobs)
	return args.Error(0)
}

func (m *MockJobRepository) ClaimNext(ctx context.Context, marketplaces []marketplace.Marketplace, now time.Time) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, marketplaces, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJobRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

var _ job.JobRepository = (*MockJobRepository)(nil)

// MockBatchRepository is a mock implementation of job.BatchRepository
type MockBatchRepository struct {
	mock.Mock
}

func (m *MockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.BatchJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.BatchJob), args.Error(1)
}

func (m *MockBatchRepository) FindByReference(ctx context.Context, userID uuid.UUID, batchID string) (*job.BatchJob, error) {
	args := m.Called(ctx, userID, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.BatchJob), args.Error(1)
}

func (m *MockBatchRepository) FindAll(ctx context.Context, filter job.BatchFilter) ([]job.BatchJob, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]job.BatchJob), args.Get(1).(int64), args.Error(2)
}

func (m *MockBatchRepository) FindActive(ctx context.Context) ([]job.BatchJob, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.BatchJob), args.Error(1)
}

func (m *MockBatchRepository) Save(ctx context.Context, b *job.BatchJob) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBatchRepository) UpdateFrom(ctx context.Context, b *job.BatchJob, from job.BatchStatus) error {
	args := m.Called(ctx, b, from)
	return args.Error(0)
}

var _ job.BatchRepository = (*MockBatchRepository)(nil)

// MockExecutionLocker is a mock implementation of job.ExecutionLocker
type MockExecutionLocker struct {
	mock.Mock
}

func (m *MockExecutionLocker) TryAcquire(ctx context.Context, jobID uuid.UUID) (job.ExecutionLock, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(job.ExecutionLock), args.Error(1)
}

func (m *MockExecutionLocker) IsHeld(ctx context.Context, jobID uuid.UUID) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher keeps published events in memory
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

// fakeTxScope runs fn against the same repositories without a real transaction
type fakeTxScope struct {
	jobs    job.JobRepository
	batches job.BatchRepository
}

func (f *fakeTxScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(f)
}

func (f *fakeTxScope) JobRepo() job.JobRepository     { return f.jobs }
func (f *fakeTxScope) BatchRepo() job.BatchRepository { return f.batches }

var fixedNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
