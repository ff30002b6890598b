// Package scheduler runs marketplace jobs: a worker pool that claims and
// executes queued jobs, and a sweeper for periodic queue maintenance.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appjob "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

// JobQueue is the job service surface used by the runner
type JobQueue interface {
	ClaimNext(ctx context.Context, marketplaces ...marketplace.Marketplace) (*job.MarketplaceJob, error)
	CompleteJob(ctx context.Context, id uuid.UUID, result job.Payload) (*job.MarketplaceJob, error)
	FailJob(ctx context.Context, id uuid.UUID, cause error, retryable bool) (*job.MarketplaceJob, error)
	RequeueJob(ctx context.Context, id uuid.UUID) error
	IsCancelled(ctx context.Context, id uuid.UUID) (bool, error)
}

// Dispatcher executes one job
type Dispatcher interface {
	Dispatch(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error)
}

// BatchProgress refreshes a batch after one of its jobs finished
type BatchProgress interface {
	RefreshProgress(ctx context.Context, batchID uuid.UUID) (*appjob.BatchView, error)
}

// RunnerConfig holds the worker pool settings
type RunnerConfig struct {
	Workers            int
	PollInterval       time.Duration
	CancelPollInterval time.Duration
	JobTimeout         time.Duration
	Marketplaces       []marketplace.Marketplace // empty = all
}

// DefaultRunnerConfig returns the default worker pool settings
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:            4,
		PollInterval:       2 * time.Second,
		CancelPollInterval: 2 * time.Second,
		JobTimeout:         30 * time.Minute,
	}
}

// Validate checks the configuration
func (c RunnerConfig) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	}
	if c.PollInterval <= 0 || c.CancelPollInterval <= 0 {
		return fmt.Errorf("%w: poll intervals must be positive", ErrInvalidConfig)
	}
	return nil
}

// finalizeTimeout bounds the bookkeeping done after a handler returns
const finalizeTimeout = 15 * time.Second

// Runner claims queued jobs and executes them under an advisory lock
type Runner struct {
	config     RunnerConfig
	queue      JobQueue
	locker     job.ExecutionLocker
	dispatcher Dispatcher
	batches    BatchProgress
	metrics    *telemetry.Metrics
	logger     *zap.Logger
	now        func() time.Time

	wake      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithBatchProgress refreshes batch counters whenever a batch job finishes
func WithBatchProgress(b BatchProgress) RunnerOption {
	return func(r *Runner) {
		r.batches = b
	}
}

// WithMetrics records Prometheus metrics
func WithMetrics(m *telemetry.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a job runner
func NewRunner(config RunnerConfig, queue JobQueue, locker job.ExecutionLocker, dispatcher Dispatcher, logger *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		config:     config,
		queue:      queue,
		locker:     locker,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the workers
func (r *Runner) Start(ctx context.Context) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.config.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	r.logger.Info("Job runner started",
		zap.Int("workers", r.config.Workers),
		zap.Duration("poll_interval", r.config.PollInterval),
		zap.Int("marketplaces", len(r.config.Marketplaces)),
	)
	return nil
}

// Stop cancels the workers and waits for in-flight jobs to be put back
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Job runner stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Job runner stop timed out")
		return ctx.Err()
	}
}

// Notify wakes an idle worker, e.g. right after a job was created
func (r *Runner) Notify() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) worker(ctx context.Context, workerID int) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		// drain the queue before sleeping
		for ctx.Err() == nil && r.RunOnce(ctx) {
		}

		select {
		case <-ctx.Done():
			r.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// RunOnce claims and executes at most one job. It reports whether a job was claimed.
func (r *Runner) RunOnce(ctx context.Context) bool {
	j, err := r.queue.ClaimNext(ctx, r.config.Marketplaces...)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("Failed to claim job", zap.Error(err))
		}
		return false
	}
	if j == nil {
		return false
	}
	r.execute(ctx, j)
	return true
}

func (r *Runner) execute(ctx context.Context, j *job.MarketplaceJob) {
	mk, action := j.Marketplace.String(), j.Action.String()
	r.metrics.JobClaimed(mk, action)
	started := r.now()

	ctx = logger.WithJobID(ctx, j.ID.String())
	ctx = logger.WithUserID(ctx, j.UserID.String())
	base := r.logger.With(zap.String("marketplace", mk), zap.String("action", action))
	log := logger.Enrich(ctx, base)

	lock, err := r.locker.TryAcquire(ctx, j.ID)
	if err != nil {
		bookkeeping, cancelBookkeeping := detached(ctx)
		defer cancelBookkeeping()

		if errors.Is(err, job.ErrLockUnavailable) {
			log.Warn("Job lock held by another executor, re-queueing")
		} else {
			log.Error("Failed to acquire job lock, re-queueing", zap.Error(err))
		}
		if err := r.queue.RequeueJob(bookkeeping, j.ID); err != nil {
			log.Error("Failed to re-queue job", zap.Error(err))
		}
		r.metrics.JobFinished(mk, action, telemetry.OutcomeRequeued, 0)
		return
	}
	defer func() {
		releaseCtx, cancelRelease := detached(ctx)
		defer cancelRelease()
		if err := lock.Release(releaseCtx); err != nil {
			log.Warn("Failed to release job lock", zap.Error(err))
		}
	}()

	log.Info("Executing job", zap.Int("retry_count", j.RetryCount), zap.Int("priority", int(j.Priority)))

	jobCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	if r.config.JobTimeout > 0 {
		var cancelTimeout context.CancelFunc
		jobCtx, cancelTimeout = context.WithTimeout(jobCtx, r.config.JobTimeout)
		defer cancelTimeout()
	}
	jobCtx = logger.WithContext(jobCtx, base)
	jobCtx = jobhandler.WithProgress(jobCtx, func(processed, total int, stage string) {
		log.Debug("Job progress",
			zap.Int("processed", processed),
			zap.Int("total", total),
			zap.String("stage", stage),
		)
	})

	stopWatch := r.watchCancellation(jobCtx, j.ID, cancel, log)
	result, handleErr := r.dispatcher.Dispatch(jobCtx, j)
	stopWatch()

	bookkeeping, cancelBookkeeping := detached(ctx)
	defer cancelBookkeeping()

	elapsed := r.now().Sub(started)
	outcome := r.finish(ctx, bookkeeping, jobCtx, j, result, handleErr, log)
	r.metrics.JobFinished(mk, action, outcome, elapsed)

	if j.BatchID != nil && r.batches != nil {
		if _, err := r.batches.RefreshProgress(bookkeeping, *j.BatchID); err != nil {
			log.Warn("Failed to refresh batch progress", zap.String("batch_id", j.BatchID.String()), zap.Error(err))
		}
	}
}

// detached survives runner shutdown so a finished job is always recorded
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
}

// finish records the handler outcome and returns the metric label for it
func (r *Runner) finish(ctx, bookkeeping, jobCtx context.Context, j *job.MarketplaceJob, result job.Payload, handleErr error, log *zap.Logger) string {
	switch {
	case errors.Is(context.Cause(jobCtx), errJobCancelled):
		log.Info("Job cancelled during execution")
		return telemetry.OutcomeCancelled

	case handleErr != nil && ctx.Err() != nil:
		// shutting down: hand the job back without burning a retry
		log.Info("Runner stopping, re-queueing job")
		if err := r.queue.RequeueJob(bookkeeping, j.ID); err != nil {
			log.Error("Failed to re-queue job", zap.Error(err))
		}
		return telemetry.OutcomeRequeued

	case handleErr == nil:
		if _, err := r.queue.CompleteJob(bookkeeping, j.ID, result); err != nil {
			log.Error("Failed to record job completion", zap.Error(err))
			return telemetry.OutcomeFailed
		}
		log.Info("Job completed")
		return telemetry.OutcomeCompleted
	}

	retryable := jobhandler.IsRetryable(handleErr)
	updated, err := r.queue.FailJob(bookkeeping, j.ID, handleErr, retryable)
	if err != nil {
		log.Error("Failed to record job failure", zap.NamedError("handler_error", handleErr), zap.Error(err))
		return telemetry.OutcomeFailed
	}
	if updated != nil && updated.Status == job.StatusPending {
		return telemetry.OutcomeRetried
	}
	if updated != nil && updated.Status == job.StatusCancelled {
		return telemetry.OutcomeCancelled
	}
	return telemetry.OutcomeFailed
}

// watchCancellation polls the job row and cancels ctx once it reads CANCELLED.
// The returned func stops the watcher and waits for it.
func (r *Runner) watchCancellation(ctx context.Context, id uuid.UUID, cancel context.CancelCauseFunc, log *zap.Logger) func() {
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(r.config.CancelPollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				cancelled, err := r.queue.IsCancelled(ctx, id)
				if err != nil {
					if ctx.Err() == nil {
						log.Warn("Failed to poll job cancellation", zap.Error(err))
					}
					continue
				}
				if cancelled {
					log.Info("Cancellation requested, stopping handler")
					cancel(errJobCancelled)
					return
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-exited
		})
	}
}
