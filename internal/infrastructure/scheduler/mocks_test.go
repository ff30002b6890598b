package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	appjob "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

type MockJobQueue struct {
	mock.Mock
}

func (m *MockJobQueue) ClaimNext(ctx context.Context, marketplaces ...marketplace.Marketplace) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, marketplaces)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobQueue) CompleteJob(ctx context.Context, id uuid.UUID, result job.Payload) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, id, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobQueue) FailJob(ctx context.Context, id uuid.UUID, cause error, retryable bool) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, id, cause, retryable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *MockJobQueue) RequeueJob(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockJobQueue) IsCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	args := m.Called(ctx, j)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(job.Payload), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) TryAcquire(ctx context.Context, jobID uuid.UUID) (job.ExecutionLock, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(job.ExecutionLock), args.Error(1)
}

func (m *MockLocker) IsHeld(ctx context.Context, jobID uuid.UUID) (bool, error) {
	args := m.Called(ctx, jobID)
	return args.Bool(0), args.Error(1)
}

type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockBatchProgress struct {
	mock.Mock
}

func (m *MockBatchProgress) RefreshProgress(ctx context.Context, batchID uuid.UUID) (*appjob.BatchView, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appjob.BatchView), args.Error(1)
}

type MockQueueMaintainer struct {
	mock.Mock
}

func (m *MockQueueMaintainer) ExpireJobs(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQueueMaintainer) RecoverOrphans(ctx context.Context, olderThan time.Duration) (int, int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockQueueMaintainer) CleanupFinished(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

type MockBatchMaintainer struct {
	mock.Mock
}

func (m *MockBatchMaintainer) RefreshActive(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
