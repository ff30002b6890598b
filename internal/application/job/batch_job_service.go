package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"go.uber.org/zap"
)

// BatchJobService manages bulk operations and their aggregated progress
type BatchJobService struct {
	txScope   TransactionScope
	batches   job.BatchRepository
	jobs      job.JobRepository
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewBatchJobService creates a BatchJobService
func NewBatchJobService(txScope TransactionScope, batches job.BatchRepository, jobs job.JobRepository, logger *zap.Logger, opts ...BatchJobServiceOption) *BatchJobService {
	s := &BatchJobService{
		txScope:   txScope,
		batches:   batches,
		jobs:      jobs,
		publisher: NoopPublisher(),
		logger:    logger.Named("batch_job_service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BatchJobServiceOption configures the service
type BatchJobServiceOption func(*BatchJobService)

// WithBatchEventPublisher sets the event sink for settled batches
func WithBatchEventPublisher(p EventPublisher) BatchJobServiceOption {
	return func(s *BatchJobService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithBatchClock overrides time.Now
func WithBatchClock(now func() time.Time) BatchJobServiceOption {
	return func(s *BatchJobService) {
		s.now = now
	}
}

// CreateBatch creates the batch row and one child job per distinct product, atomically
func (s *BatchJobService) CreateBatch(ctx context.Context, in CreateBatchInput) (*BatchView, error) {
	spec, err := marketplace.LookupAction(in.Marketplace, in.Action)
	if err != nil {
		return nil, err
	}
	if !in.Action.IsProductLevel() {
		return nil, fmt.Errorf("%w: %s is not a product action", marketplace.ErrUnsupportedAction, in.Action)
	}

	productIDs := dedupe(in.ProductIDs)
	if len(productIDs) == 0 {
		return nil, job.ErrEmptyBatch
	}

	priority := spec.Priority
	if in.Priority != 0 {
		priority = in.Priority
	}
	batch := job.NewBatchJob(in.UserID, in.Marketplace, in.Action, priority, len(productIDs))

	children := make([]*job.MarketplaceJob, 0, len(productIDs))
	for _, pid := range productIDs {
		pid := pid
		child, err := buildJob(CreateJobInput{
			UserID:      in.UserID,
			Marketplace: in.Marketplace,
			Action:      in.Action,
			ProductID:   &pid,
			BatchID:     &batch.ID,
			Priority:    priority,
			InputData:   clonePayload(in.InputData),
		})
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.BatchRepo().Save(ctx, batch); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		if err := repos.JobRepo().SaveBatch(ctx, children); err != nil {
			return fmt.Errorf("save batch jobs: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Batch job created",
		zap.String("batch_id", batch.BatchID),
		zap.String("user_id", in.UserID.String()),
		zap.String("marketplace", in.Marketplace.String()),
		zap.String("action", in.Action.String()),
		zap.Int("total", batch.TotalCount),
	)

	counts := job.StatusCounts{job.StatusPending: len(children)}
	return &BatchView{Batch: batch, Progress: batch.Progress(counts)}, nil
}

// GetBatch loads a batch by its reference and refreshes its progress
func (s *BatchJobService) GetBatch(ctx context.Context, userID uuid.UUID, reference string) (*BatchView, error) {
	batch, err := s.batches.FindByReference(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, batch)
}

// ListBatches lists a user's batches
func (s *BatchJobService) ListBatches(ctx context.Context, filter job.BatchFilter) ([]job.BatchJob, int64, error) {
	return s.batches.FindAll(ctx, filter)
}

// BatchJobs lists the children of a batch, optionally filtered by status
func (s *BatchJobService) BatchJobs(ctx context.Context, userID uuid.UUID, reference string, statuses ...job.Status) ([]job.MarketplaceJob, error) {
	batch, err := s.batches.FindByReference(ctx, userID, reference)
	if err != nil {
		return nil, err
	}
	return s.jobs.FindByBatch(ctx, batch.ID, statuses...)
}

// RefreshProgress recomputes a batch from its children. It is called whenever a child finishes.
func (s *BatchJobService) RefreshProgress(ctx context.Context, batchID uuid.UUID) (*BatchView, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, batch)
}

// refresh re-derives an unsettled batch from its children. Settled batches
// report their stored counters since retention may have removed children.
func (s *BatchJobService) refresh(ctx context.Context, batch *job.BatchJob) (*BatchView, error) {
	if batch.Status.IsFinal() {
		return &BatchView{Batch: batch, Progress: batch.StoredProgress()}, nil
	}

	counts, err := s.jobs.CountByBatch(ctx, batch.ID)
	if err != nil {
		return nil, fmt.Errorf("count batch jobs: %w", err)
	}

	from := batch.Status
	if batch.ApplyCounts(counts, s.now()) {
		if err := s.batches.UpdateFrom(ctx, batch, from); err != nil {
			if errors.Is(err, job.ErrBatchConflict) {
				// settled or cancelled concurrently: report what is stored
				current, ferr := s.batches.FindByID(ctx, batch.ID)
				if ferr != nil {
					return nil, ferr
				}
				return s.refresh(ctx, current)
			}
			return nil, fmt.Errorf("save batch: %w", err)
		}
		if batch.Status.IsFinal() {
			s.logger.Info("Batch job finished",
				zap.String("batch_id", batch.BatchID),
				zap.String("status", batch.Status.String()),
				zap.Int("completed", batch.CompletedCount),
				zap.Int("failed", batch.FailedCount),
			)
			if err := s.publisher.Publish(ctx, job.NewBatchEvent(batch)); err != nil {
				s.logger.Warn("Failed to publish batch event", zap.String("batch_id", batch.BatchID), zap.Error(err))
			}
		}
	}
	return &BatchView{Batch: batch, Progress: batch.Progress(counts)}, nil
}

// CancelBatch cancels every pending or running child and settles the batch
func (s *BatchJobService) CancelBatch(ctx context.Context, userID uuid.UUID, reference string) (*BatchView, int, error) {
	batch, err := s.batches.FindByReference(ctx, userID, reference)
	if err != nil {
		return nil, 0, err
	}
	if batch.Status.IsFinal() {
		return nil, 0, job.ErrJobAlreadyFinished
	}

	now := s.now()
	from := batch.Status
	cancelled := 0
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		active, err := repos.JobRepo().FindByBatch(ctx, batch.ID, job.StatusPending, job.StatusRunning)
		if err != nil {
			return err
		}
		for i := range active {
			prev := active[i].Status
			if err := active[i].Cancel(now); err != nil {
				continue
			}
			if err := repos.JobRepo().UpdateFrom(ctx, &active[i], prev); err != nil {
				if errors.Is(err, job.ErrJobConflict) {
					// the child finished since it was listed
					continue
				}
				return err
			}
			cancelled++
		}
		batch.MarkCancelled(now)
		return repos.BatchRepo().UpdateFrom(ctx, batch, from)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("cancel batch: %w", err)
	}

	counts, err := s.jobs.CountByBatch(ctx, batch.ID)
	if err != nil {
		return nil, cancelled, err
	}
	s.logger.Info("Batch job cancelled", zap.String("batch_id", batch.BatchID), zap.Int("jobs_cancelled", cancelled))
	if err := s.publisher.Publish(ctx, job.NewBatchEvent(batch)); err != nil {
		s.logger.Warn("Failed to publish batch event", zap.String("batch_id", batch.BatchID), zap.Error(err))
	}
	return &BatchView{Batch: batch, Progress: batch.Progress(counts)}, cancelled, nil
}

// RetryFailed resets the failed and expired children of a batch
func (s *BatchJobService) RetryFailed(ctx context.Context, userID uuid.UUID, reference string) (*BatchView, int, error) {
	batch, err := s.batches.FindByReference(ctx, userID, reference)
	if err != nil {
		return nil, 0, err
	}
	spec, err := marketplace.LookupAction(batch.Marketplace, batch.Action)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	from := batch.Status
	retried := 0
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		failed, err := repos.JobRepo().FindByBatch(ctx, batch.ID, job.StatusFailed, job.StatusExpired)
		if err != nil {
			return err
		}
		for i := range failed {
			prev := failed[i].Status
			if err := failed[i].Reset(now, spec.Timeout); err != nil {
				continue
			}
			if err := repos.JobRepo().UpdateFrom(ctx, &failed[i], prev); err != nil {
				if errors.Is(err, job.ErrJobConflict) {
					continue
				}
				return err
			}
			retried++
		}
		if retried == 0 {
			return nil
		}
		batch.Status = job.BatchStatusRunning
		batch.CompletedAt = nil
		batch.UpdatedAt = now
		return repos.BatchRepo().UpdateFrom(ctx, batch, from)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("retry batch: %w", err)
	}

	view, err := s.refresh(ctx, batch)
	if err != nil {
		return nil, retried, err
	}
	s.logger.Info("Batch job failures re-queued", zap.String("batch_id", batch.BatchID), zap.Int("jobs_retried", retried))
	return view, retried, nil
}

// RefreshActive recomputes every unsettled batch and returns how many settled
func (s *BatchJobService) RefreshActive(ctx context.Context) (int, error) {
	active, err := s.batches.FindActive(ctx)
	if err != nil {
		return 0, err
	}
	settled := 0
	for i := range active {
		view, err := s.refresh(ctx, &active[i])
		if err != nil {
			s.logger.Warn("Failed to refresh batch", zap.String("batch_id", active[i].BatchID), zap.Error(err))
			continue
		}
		if view.Batch.Status.IsFinal() {
			settled++
		}
	}
	return settled, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func clonePayload(p job.Payload) job.Payload {
	if p == nil {
		return nil
	}
	out := make(job.Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
