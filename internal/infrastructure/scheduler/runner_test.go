package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

type runnerFixture struct {
	queue      *MockJobQueue
	locker     *MockLocker
	lock       *MockLock
	dispatcher *MockDispatcher
	batches    *MockBatchProgress
	metrics    *telemetry.Metrics
	logs       *observer.ObservedLogs
	runner     *Runner
}

func newRunnerFixture(t *testing.T, cfg RunnerConfig) *runnerFixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &runnerFixture{
		queue:      new(MockJobQueue),
		locker:     new(MockLocker),
		lock:       new(MockLock),
		dispatcher: new(MockDispatcher),
		batches:    new(MockBatchProgress),
		metrics:    telemetry.NewMetrics(),
		logs:       logs,
	}
	f.runner = NewRunner(cfg, f.queue, f.locker, f.dispatcher, zap.New(core),
		WithBatchProgress(f.batches),
		WithMetrics(f.metrics),
	)
	return f
}

func testRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:            1,
		PollInterval:       10 * time.Millisecond,
		CancelPollInterval: time.Hour,
		JobTimeout:         time.Minute,
	}
}

func newRunningJob(t *testing.T, batchID *uuid.UUID) *job.MarketplaceJob {
	t.Helper()
	spec, err := marketplace.LookupAction(marketplace.Vinted, marketplace.ActionPublish)
	require.NoError(t, err)
	productID := uuid.New()
	j := job.NewMarketplaceJob(uuid.New(), spec, &productID, nil)
	j.BatchID = batchID
	require.NoError(t, j.Start(time.Now()))
	return j
}

func TestRunnerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RunnerConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*RunnerConfig) {}},
		{name: "no workers", mutate: func(c *RunnerConfig) { c.Workers = 0 }, wantErr: true},
		{name: "zero poll interval", mutate: func(c *RunnerConfig) { c.PollInterval = 0 }, wantErr: true},
		{name: "zero cancel poll", mutate: func(c *RunnerConfig) { c.CancelPollInterval = 0 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunnerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRunner_RunOnce_EmptyQueue(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	f.queue.On("ClaimNext", mock.Anything, []marketplace.Marketplace(nil)).Return(nil, nil).Once()

	assert.False(t, f.runner.RunOnce(context.Background()))
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestRunner_RunOnce_ClaimError(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	assert.False(t, f.runner.RunOnce(context.Background()))
	assert.Equal(t, 1, f.logs.FilterMessage("Failed to claim job").Len())
}

func TestRunner_RunOnce_Completes(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	batchID := uuid.New()
	j := newRunningJob(t, &batchID)
	result := job.Payload{"remote_id": "42"}

	f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(j, nil).Once()
	f.locker.On("TryAcquire", mock.Anything, j.ID).Return(f.lock, nil).Once()
	f.lock.On("Release", mock.Anything).Return(nil).Once()
	f.dispatcher.On("Dispatch", mock.Anything, j).
		Run(func(args mock.Arguments) {
			jobhandler.ReportProgress(args.Get(0).(context.Context), 1, 3, "photos")
		}).
		Return(result, nil).Once()
	f.queue.On("CompleteJob", mock.Anything, j.ID, result).Return(j, nil).Once()
	f.batches.On("RefreshProgress", mock.Anything, batchID).Return(nil, nil).Once()

	assert.True(t, f.runner.RunOnce(context.Background()))

	f.queue.AssertExpectations(t)
	f.locker.AssertExpectations(t)
	f.lock.AssertExpectations(t)
	f.dispatcher.AssertExpectations(t)
	f.batches.AssertExpectations(t)

	progress := f.logs.FilterMessage("Job progress").All()
	require.Len(t, progress, 1)
	fields := progress[0].ContextMap()
	assert.Equal(t, j.ID.String(), fields["job_id"])
	assert.Equal(t, "photos", fields["stage"])
}

func TestRunner_RunOnce_Failures(t *testing.T) {
	tests := []struct {
		name          string
		handlerErr    error
		wantRetryable bool
		afterStatus   job.Status
	}{
		{name: "transient error is retried", handlerErr: errors.New("connection reset"), wantRetryable: true, afterStatus: job.StatusPending},
		{name: "permanent error fails", handlerErr: jobhandler.Permanent(errors.New("bad input")), wantRetryable: false, afterStatus: job.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRunnerFixture(t, testRunnerConfig())
			j := newRunningJob(t, nil)
			after := *j
			after.Status = tt.afterStatus

			f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(j, nil).Once()
			f.locker.On("TryAcquire", mock.Anything, j.ID).Return(f.lock, nil).Once()
			f.lock.On("Release", mock.Anything).Return(nil).Once()
			f.dispatcher.On("Dispatch", mock.Anything, j).Return(nil, tt.handlerErr).Once()
			f.queue.On("FailJob", mock.Anything, j.ID, tt.handlerErr, tt.wantRetryable).Return(&after, nil).Once()

			assert.True(t, f.runner.RunOnce(context.Background()))

			f.queue.AssertExpectations(t)
			f.lock.AssertExpectations(t)
			f.queue.AssertNotCalled(t, "CompleteJob", mock.Anything, mock.Anything, mock.Anything)
			f.batches.AssertNotCalled(t, "RefreshProgress", mock.Anything, mock.Anything)
		})
	}
}

func TestRunner_RunOnce_LockUnavailable(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	j := newRunningJob(t, nil)

	f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(j, nil).Once()
	f.locker.On("TryAcquire", mock.Anything, j.ID).Return(nil, job.ErrLockUnavailable).Once()
	f.queue.On("RequeueJob", mock.Anything, j.ID).Return(nil).Once()

	assert.True(t, f.runner.RunOnce(context.Background()))

	f.queue.AssertExpectations(t)
	f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_RunOnce_CancelledWhileRunning(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.CancelPollInterval = 5 * time.Millisecond
	f := newRunnerFixture(t, cfg)
	j := newRunningJob(t, nil)

	f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(j, nil).Once()
	f.locker.On("TryAcquire", mock.Anything, j.ID).Return(f.lock, nil).Once()
	f.lock.On("Release", mock.Anything).Return(nil).Once()
	f.queue.On("IsCancelled", mock.Anything, j.ID).Return(false, nil).Once()
	f.queue.On("IsCancelled", mock.Anything, j.ID).Return(true, nil)
	f.dispatcher.On("Dispatch", mock.Anything, j).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(nil, context.Canceled).Once()

	done := make(chan bool)
	go func() { done <- f.runner.RunOnce(context.Background()) }()

	select {
	case claimed := <-done:
		assert.True(t, claimed)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not cancelled")
	}

	f.lock.AssertExpectations(t)
	f.queue.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.queue.AssertNotCalled(t, "CompleteJob", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, f.logs.FilterMessage("Job cancelled during execution").Len())
}

func TestRunner_RunOnce_ShutdownRequeues(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	j := newRunningJob(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.queue.On("ClaimNext", mock.Anything, mock.Anything).Return(j, nil).Once()
	f.locker.On("TryAcquire", mock.Anything, j.ID).Return(f.lock, nil).Once()
	f.lock.On("Release", mock.Anything).Return(nil).Once()
	f.dispatcher.On("Dispatch", mock.Anything, j).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled).Once()
	f.queue.On("RequeueJob", mock.Anything, j.ID).Return(nil).Once()

	assert.True(t, f.runner.RunOnce(ctx))

	f.queue.AssertExpectations(t)
	f.lock.AssertExpectations(t)
	f.queue.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_StartStop(t *testing.T) {
	f := newRunnerFixture(t, testRunnerConfig())
	var polls atomic.Int32
	f.queue.On("ClaimNext", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { polls.Add(1) }).
		Return(nil, nil)

	require.NoError(t, f.runner.Start(context.Background()))
	// idempotent
	require.NoError(t, f.runner.Start(context.Background()))
	f.runner.Notify()

	assert.Eventually(t, func() bool {
		return polls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.runner.Stop(ctx))
	require.NoError(t, f.runner.Stop(ctx))
}

func TestRunner_Start_InvalidConfig(t *testing.T) {
	cfg := testRunnerConfig()
	cfg.Workers = 0
	f := newRunnerFixture(t, cfg)

	assert.ErrorIs(t, f.runner.Start(context.Background()), ErrInvalidConfig)
}
