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

// MarketplaceJobService owns the job state machine: creation, claiming,
// completion, retries, cancellation and expiry.
type MarketplaceJobService struct {
	repo      job.JobRepository
	locker    job.ExecutionLocker
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// MarketplaceJobServiceOption configures the service
type MarketplaceJobServiceOption func(*MarketplaceJobService)

// WithEventPublisher sets the lifecycle event sink
func WithEventPublisher(p EventPublisher) MarketplaceJobServiceOption {
	return func(s *MarketplaceJobService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) MarketplaceJobServiceOption {
	return func(s *MarketplaceJobService) {
		s.now = now
	}
}

// NewMarketplaceJobService creates a MarketplaceJobService
func NewMarketplaceJobService(repo job.JobRepository, locker job.ExecutionLocker, logger *zap.Logger, opts ...MarketplaceJobServiceOption) *MarketplaceJobService {
	s := &MarketplaceJobService{
		repo:      repo,
		locker:    locker,
		publisher: NoopPublisher(),
		logger:    logger.Named("marketplace_job_service"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// buildJob validates input and applies action defaults
func buildJob(in CreateJobInput) (*job.MarketplaceJob, error) {
	spec, err := marketplace.LookupAction(in.Marketplace, in.Action)
	if err != nil {
		return nil, err
	}
	if in.Action.IsProductLevel() && (in.ProductID == nil || *in.ProductID == uuid.Nil) {
		return nil, job.ErrProductRequired
	}
	if in.Priority != 0 {
		if !in.Priority.IsValid() {
			return nil, fmt.Errorf("invalid priority %d", in.Priority)
		}
		spec.Priority = in.Priority
	}
	if in.MaxRetries != nil && *in.MaxRetries >= 0 {
		spec.MaxRetries = *in.MaxRetries
	}
	j := job.NewMarketplaceJob(in.UserID, spec, in.ProductID, in.InputData)
	j.BatchID = in.BatchID
	return j, nil
}

// CreateJob enqueues a PENDING job
func (s *MarketplaceJobService) CreateJob(ctx context.Context, in CreateJobInput) (*job.MarketplaceJob, error) {
	j, err := buildJob(in)
	if err != nil {
		return nil, err
	}

	if j.Action.IsProductLevel() {
		existing, err := s.repo.FindActiveForProduct(ctx, j.UserID, j.Marketplace, j.Action, *j.ProductID)
		if err != nil && !errors.Is(err, job.ErrJobNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, job.ErrDuplicateJob
		}
	}

	if err := s.repo.Create(ctx, j); err != nil {
		if errors.Is(err, job.ErrDuplicateJob) {
			return nil, err
		}
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("Marketplace job created",
		zap.String("job_id", j.ID.String()),
		zap.String("user_id", j.UserID.String()),
		zap.String("marketplace", j.Marketplace.String()),
		zap.String("action", j.Action.String()),
		zap.Int("priority", int(j.Priority)),
	)
	return j, nil
}

// GetJob returns a job owned by the user
func (s *MarketplaceJobService) GetJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	return s.repo.FindByIDForUser(ctx, userID, id)
}

// ListJobs lists jobs with filtering
func (s *MarketplaceJobService) ListJobs(ctx context.Context, filter job.JobFilter) ([]job.MarketplaceJob, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	return s.repo.FindAll(ctx, filter)
}

// ClaimNext picks the next runnable job for the given marketplaces (all when empty)
func (s *MarketplaceJobService) ClaimNext(ctx context.Context, marketplaces ...marketplace.Marketplace) (*job.MarketplaceJob, error) {
	j, err := s.repo.ClaimNext(ctx, marketplaces, s.now())
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	if j != nil {
		s.logger.Debug("Marketplace job claimed",
			zap.String("job_id", j.ID.String()),
			zap.String("action", j.Action.String()),
			zap.Int("retry_count", j.RetryCount),
		)
	}
	return j, nil
}

// maxTransitionAttempts bounds the re-reads of a job whose status keeps moving
const maxTransitionAttempts = 3

// transition loads the job, lets apply mutate it and writes it back only if
// the stored status is still the one apply saw. A concurrent writer causes a
// re-read, so apply always decides on the latest row. apply returning false
// leaves the row untouched.
func (s *MarketplaceJobService) transition(ctx context.Context, load func() (*job.MarketplaceJob, error), apply func(j *job.MarketplaceJob) (bool, error)) (*job.MarketplaceJob, bool, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		j, err := load()
		if err != nil {
			return nil, false, err
		}
		from := j.Status
		write, err := apply(j)
		if err != nil {
			return nil, false, err
		}
		if !write {
			return j, false, nil
		}
		err = s.repo.UpdateFrom(ctx, j, from)
		if errors.Is(err, job.ErrJobConflict) {
			s.logger.Debug("Marketplace job changed concurrently, re-reading",
				zap.String("job_id", j.ID.String()),
				zap.String("from", from.String()),
			)
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("save job: %w", err)
		}
		return j, true, nil
	}
	return nil, false, job.ErrJobConflict
}

func (s *MarketplaceJobService) byID(ctx context.Context, id uuid.UUID) func() (*job.MarketplaceJob, error) {
	return func() (*job.MarketplaceJob, error) { return s.repo.FindByID(ctx, id) }
}

func (s *MarketplaceJobService) byIDForUser(ctx context.Context, userID, id uuid.UUID) func() (*job.MarketplaceJob, error) {
	return func() (*job.MarketplaceJob, error) { return s.repo.FindByIDForUser(ctx, userID, id) }
}

// CompleteJob stores the result of a successful execution. A job cancelled
// while running stays CANCELLED.
func (s *MarketplaceJobService) CompleteJob(ctx context.Context, id uuid.UUID, result job.Payload) (*job.MarketplaceJob, error) {
	j, written, err := s.transition(ctx, s.byID(ctx, id), func(j *job.MarketplaceJob) (bool, error) {
		if j.Status == job.StatusCancelled {
			return false, nil
		}
		return true, j.Complete(s.now(), result)
	})
	if err != nil {
		return nil, err
	}
	if written {
		s.publish(ctx, j)
	}
	return j, nil
}

// FailJob records a failure; retryable failures are re-queued with a backoff
// while retries remain
func (s *MarketplaceJobService) FailJob(ctx context.Context, id uuid.UUID, cause error, retryable bool) (*job.MarketplaceJob, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	requeued := false
	j, written, err := s.transition(ctx, s.byID(ctx, id), func(j *job.MarketplaceJob) (bool, error) {
		if j.Status == job.StatusCancelled {
			return false, nil
		}
		var err error
		requeued, err = j.Fail(s.now(), msg, retryable)
		return true, err
	})
	if err != nil {
		return nil, err
	}
	if !written {
		return j, nil
	}

	if requeued {
		s.logger.Warn("Marketplace job failed, re-queued",
			zap.String("job_id", j.ID.String()),
			zap.Int("retry_count", j.RetryCount),
			zap.Int("max_retries", j.MaxRetries),
			zap.Timep("next_attempt_at", j.NextAttemptAt),
			zap.String("error", msg),
		)
	} else {
		s.logger.Error("Marketplace job failed",
			zap.String("job_id", j.ID.String()),
			zap.Bool("retryable", retryable),
			zap.String("error", msg),
		)
	}
	s.publish(ctx, j)
	return j, nil
}

// RequeueJob puts a claimed job back without consuming a retry
func (s *MarketplaceJobService) RequeueJob(ctx context.Context, id uuid.UUID) error {
	_, _, err := s.transition(ctx, s.byID(ctx, id), func(j *job.MarketplaceJob) (bool, error) {
		if j.Status != job.StatusRunning {
			return false, nil
		}
		j.Requeue(s.now())
		return true, nil
	})
	return err
}

// CancelJob cancels a pending or running job. Running executors observe the
// CANCELLED row and release their advisory lock; Acknowledged reports whether
// the lock is already free.
func (s *MarketplaceJobService) CancelJob(ctx context.Context, userID, id uuid.UUID) (*CancelResult, error) {
	wasRunning := false
	j, _, err := s.transition(ctx, s.byIDForUser(ctx, userID, id), func(j *job.MarketplaceJob) (bool, error) {
		wasRunning = j.Status == job.StatusRunning
		return true, j.Cancel(s.now())
	})
	if err != nil {
		return nil, err
	}

	result := &CancelResult{Job: j, Acknowledged: true}
	if wasRunning {
		held, err := s.locker.IsHeld(ctx, j.ID)
		if err != nil {
			s.logger.Warn("Failed to probe job execution lock", zap.String("job_id", j.ID.String()), zap.Error(err))
		}
		result.Acknowledged = err == nil && !held
	}

	s.logger.Info("Marketplace job cancelled",
		zap.String("job_id", j.ID.String()),
		zap.Bool("was_running", wasRunning),
		zap.Bool("acknowledged", result.Acknowledged),
	)
	s.publish(ctx, j)
	return result, nil
}

// IsCancelled reports whether the job row has been cancelled
func (s *MarketplaceJobService) IsCancelled(ctx context.Context, id uuid.UUID) (bool, error) {
	status, err := s.repo.GetStatus(ctx, id)
	if err != nil {
		return false, err
	}
	return status == job.StatusCancelled, nil
}

// IsExecuting reports whether an executor currently holds the job
func (s *MarketplaceJobService) IsExecuting(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.locker.IsHeld(ctx, id)
}

// RetryJob re-queues a failed, expired or cancelled job from scratch
func (s *MarketplaceJobService) RetryJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	j, _, err := s.transition(ctx, s.byIDForUser(ctx, userID, id), func(j *job.MarketplaceJob) (bool, error) {
		spec, err := marketplace.LookupAction(j.Marketplace, j.Action)
		if err != nil {
			return false, err
		}
		return true, j.Reset(s.now(), spec.Timeout)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Marketplace job reset for retry", zap.String("job_id", j.ID.String()))
	return j, nil
}

// ExpireJobs marks overdue PENDING jobs as EXPIRED
func (s *MarketplaceJobService) ExpireJobs(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpirePending(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("expire pending jobs: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired pending marketplace jobs", zap.Int64("count", n))
	}
	return n, nil
}

// RecoverOrphans fails RUNNING jobs whose executor died. A job is orphaned when
// it started before the threshold and nobody holds its advisory lock.
func (s *MarketplaceJobService) RecoverOrphans(ctx context.Context, olderThan time.Duration) (requeued, failed int, err error) {
	stale, err := s.repo.FindStaleRunning(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, 0, fmt.Errorf("find stale jobs: %w", err)
	}

	for i := range stale {
		j := &stale[i]
		held, err := s.locker.IsHeld(ctx, j.ID)
		if err != nil {
			s.logger.Warn("Failed to check orphan candidate", zap.String("job_id", j.ID.String()), zap.Error(err))
			continue
		}
		if held {
			continue
		}
		again, err := j.Fail(s.now(), "executor lost: job orphaned", true)
		if err != nil {
			continue
		}
		if err := s.repo.UpdateFrom(ctx, j, job.StatusRunning); err != nil {
			if errors.Is(err, job.ErrJobConflict) {
				// finished or cancelled since the scan
				continue
			}
			return requeued, failed, fmt.Errorf("save orphan: %w", err)
		}
		if again {
			requeued++
		} else {
			failed++
		}
		s.logger.Warn("Recovered orphaned marketplace job",
			zap.String("job_id", j.ID.String()),
			zap.Bool("requeued", again),
		)
		s.publish(ctx, j)
	}
	return requeued, failed, nil
}

// CleanupFinished deletes terminal jobs older than retention
func (s *MarketplaceJobService) CleanupFinished(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteFinishedBefore(ctx, s.now().Add(-retention))
}

// Stats returns the per-status tally for a user
func (s *MarketplaceJobService) Stats(ctx context.Context, userID uuid.UUID) (*JobStats, error) {
	counts, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &JobStats{UserID: userID, Counts: make(map[job.Status]int, len(job.AllStatuses())), At: s.now()}
	for _, st := range job.AllStatuses() {
		out.Counts[st] = counts[st]
	}
	out.Total = counts.Total()
	return out, nil
}

func (s *MarketplaceJobService) publish(ctx context.Context, j *job.MarketplaceJob) {
	if err := s.publisher.Publish(ctx, job.NewJobEvent(job.EventTypeFor(j.Status), j)); err != nil {
		s.logger.Warn("Failed to publish job event", zap.String("job_id", j.ID.String()), zap.Error(err))
	}
}
