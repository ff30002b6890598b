package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
)

// QueueMaintainer is the job service surface used by the sweeper
type QueueMaintainer interface {
	ExpireJobs(ctx context.Context) (int64, error)
	RecoverOrphans(ctx context.Context, olderThan time.Duration) (requeued, failed int, err error)
	CleanupFinished(ctx context.Context, retention time.Duration) (int64, error)
}

// BatchMaintainer refreshes the counters of unfinished batches
type BatchMaintainer interface {
	RefreshActive(ctx context.Context) (int, error)
}

// SweeperConfig holds the maintenance settings
type SweeperConfig struct {
	Interval        time.Duration
	OrphanThreshold time.Duration
	Retention       time.Duration
}

// Sweep task names, used as metric labels
const (
	TaskExpire  = "expire"
	TaskOrphans = "orphans"
	TaskBatches = "batches"
	TaskCleanup = "cleanup"
)

// SweepReport summarizes one sweep
type SweepReport struct {
	Expired        int64
	OrphansRetried int
	OrphansFailed  int
	BatchesRefresh int
	Deleted        int64
	Errors         map[string]error
}

// Sweeper runs periodic queue maintenance: expiry, orphan recovery,
// batch aggregation and retention cleanup
type Sweeper struct {
	config  SweeperConfig
	jobs    QueueMaintainer
	batches BatchMaintainer
	metrics *telemetry.Metrics
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweeper creates a sweeper; metrics may be nil
func NewSweeper(config SweeperConfig, jobs QueueMaintainer, batches BatchMaintainer, metrics *telemetry.Metrics, logger *zap.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	return &Sweeper{
		config:  config,
		jobs:    jobs,
		batches: batches,
		metrics: metrics,
		logger:  logger,
	}
}

// Start runs a sweep immediately and then on every interval
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()

		for {
			s.RunOnce(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	s.logger.Info("Job sweeper started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("orphan_threshold", s.config.OrphanThreshold),
		zap.Duration("retention", s.config.Retention),
	)
	return nil
}

// Stop halts the sweeper and waits for a running sweep
func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs every maintenance task once. A failing task does not
// prevent the others from running.
func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	report := SweepReport{Errors: map[string]error{}}

	n, err := s.jobs.ExpireJobs(ctx)
	s.record(TaskExpire, n, err, &report)
	report.Expired = n

	if s.config.OrphanThreshold > 0 {
		requeued, failed, err := s.jobs.RecoverOrphans(ctx, s.config.OrphanThreshold)
		s.record(TaskOrphans, int64(requeued+failed), err, &report)
		report.OrphansRetried, report.OrphansFailed = requeued, failed
	}

	if s.batches != nil {
		refreshed, err := s.batches.RefreshActive(ctx)
		s.record(TaskBatches, int64(refreshed), err, &report)
		report.BatchesRefresh = refreshed
	}

	if s.config.Retention > 0 {
		deleted, err := s.jobs.CleanupFinished(ctx, s.config.Retention)
		s.record(TaskCleanup, deleted, err, &report)
		report.Deleted = deleted
	}

	if report.Expired+report.Deleted > 0 || report.OrphansRetried+report.OrphansFailed > 0 {
		s.logger.Info("Job sweep finished",
			zap.Int64("expired", report.Expired),
			zap.Int("orphans_requeued", report.OrphansRetried),
			zap.Int("orphans_failed", report.OrphansFailed),
			zap.Int("batches_refreshed", report.BatchesRefresh),
			zap.Int64("deleted", report.Deleted),
		)
	}
	return report
}

func (s *Sweeper) record(task string, n int64, err error, report *SweepReport) {
	if err != nil {
		report.Errors[task] = err
		s.metrics.SweepFailed(task)
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("Sweep task failed", zap.String("task", task), zap.Error(err))
		}
		return
	}
	s.metrics.SweepAffected(task, n)
}
