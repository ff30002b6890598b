package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormJobRepository implements job.JobRepository using GORM
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// FindByID finds a job by its ID
func (r *GormJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.MarketplaceJob, error) {
	var m models.MarketplaceJobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDForUser finds a job by ID within a user's jobs
func (r *GormJobRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	var m models.MarketplaceJobModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists jobs matching the filter together with the unpaginated total
func (r *GormJobRepository) FindAll(ctx context.Context, filter job.JobFilter) ([]job.MarketplaceJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MarketplaceJobModel{}).Where("user_id = ?", filter.UserID)
	if filter.Marketplace != "" {
		query = query.Where("marketplace = ?", filter.Marketplace)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, JobSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.MarketplaceJobModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return jobsToDomain(rows), total, nil
}

// FindActiveForProduct returns the PENDING or RUNNING job for the product and action, if any
func (r *GormJobRepository) FindActiveForProduct(ctx context.Context, userID uuid.UUID, mp marketplace.Marketplace, action marketplace.Action, productID uuid.UUID) (*job.MarketplaceJob, error) {
	var m models.MarketplaceJobModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND marketplace = ? AND action = ? AND product_id = ?", userID, mp, action, productID).
		Where("status IN ?", []job.Status{job.StatusPending, job.StatusRunning}).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByBatch returns the children of a batch, optionally restricted to some statuses
func (r *GormJobRepository) FindByBatch(ctx context.Context, batchID uuid.UUID, statuses ...job.Status) ([]job.MarketplaceJob, error) {
	query := r.db.WithContext(ctx).Where("batch_id = ?", batchID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	var rows []models.MarketplaceJobModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return jobsToDomain(rows), nil
}

// FindStaleRunning returns RUNNING jobs started before the given instant
func (r *GormJobRepository) FindStaleRunning(ctx context.Context, startedBefore time.Time) ([]job.MarketplaceJob, error) {
	var rows []models.MarketplaceJobModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND started_at < ?", job.StatusRunning, startedBefore).
		Order("started_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return jobsToDomain(rows), nil
}

type statusCountRow struct {
	Status job.Status
	Count  int
}

// CountByStatus tallies a user's jobs per status
func (r *GormJobRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (job.StatusCounts, error) {
	return r.countBy(ctx, "user_id = ?", userID)
}

// CountByBatch tallies a batch's children per status
func (r *GormJobRepository) CountByBatch(ctx context.Context, batchID uuid.UUID) (job.StatusCounts, error) {
	return r.countBy(ctx, "batch_id = ?", batchID)
}

func (r *GormJobRepository) countBy(ctx context.Context, cond string, arg any) (job.StatusCounts, error) {
	var rows []statusCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.MarketplaceJobModel{}).
		Select("status, COUNT(*) AS count").
		Where(cond, arg).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(job.StatusCounts, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// GetStatus reads only the status column of a job
func (r *GormJobRepository) GetStatus(ctx context.Context, id uuid.UUID) (job.Status, error) {
	var m models.MarketplaceJobModel
	if err := r.db.WithContext(ctx).
		Select("id", "status").
		Where("id = ?", id).
		Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", job.ErrJobNotFound
		}
		return "", err
	}
	return m.Status, nil
}

// Create inserts a new job. The partial unique index on active product jobs
// surfaces as job.ErrDuplicateJob.
func (r *GormJobRepository) Create(ctx context.Context, j *job.MarketplaceJob) error {
	err := r.db.WithContext(ctx).Create(models.MarketplaceJobModelFromDomain(j)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return job.ErrDuplicateJob
	}
	return err
}

// Save creates or updates a job
func (r *GormJobRepository) Save(ctx context.Context, j *job.MarketplaceJob) error {
	return r.db.WithContext(ctx).Save(models.MarketplaceJobModelFromDomain(j)).Error
}

// UpdateFrom writes the mutable columns of j guarded by its previous status
func (r *GormJobRepository) UpdateFrom(ctx context.Context, j *job.MarketplaceJob, from job.Status) error {
	m := models.MarketplaceJobModelFromDomain(j)
	result := r.db.WithContext(ctx).
		Model(&models.MarketplaceJobModel{}).
		Where("id = ? AND status = ?", j.ID, from).
		Updates(map[string]any{
			"status":          m.Status,
			"retry_count":     m.RetryCount,
			"result_data":     m.ResultData,
			"error_message":   m.ErrorMessage,
			"started_at":      m.StartedAt,
			"completed_at":    m.CompletedAt,
			"expires_at":      m.ExpiresAt,
			"next_attempt_at": m.NextAttemptAt,
			"updated_at":      m.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return job.ErrDuplicateJob
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return job.ErrJobConflict
	}
	return nil
}

// SaveBatch creates or updates multiple jobs
func (r *GormJobRepository) SaveBatch(ctx context.Context, jobs []*job.MarketplaceJob) error {
	if len(jobs) == 0 {
		return nil
	}
	rows := make([]*models.MarketplaceJobModel, len(jobs))
	for i, j := range jobs {
		rows[i] = models.MarketplaceJobModelFromDomain(j)
	}
	return r.db.WithContext(ctx).Save(rows).Error
}

// ClaimNext locks the next runnable job with FOR UPDATE SKIP LOCKED and marks it RUNNING
// in the same transaction. Returns nil when nothing is runnable.
func (r *GormJobRepository) ClaimNext(ctx context.Context, marketplaces []marketplace.Marketplace, now time.Time) (*job.MarketplaceJob, error) {
	var claimed *job.MarketplaceJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", job.StatusPending).
			Where("expires_at IS NULL OR expires_at > ?", now).
			Where("next_attempt_at IS NULL OR next_attempt_at <= ?", now)
		if len(marketplaces) > 0 {
			query = query.Where("marketplace IN ?", marketplaces)
		}

		var rows []models.MarketplaceJobModel
		if err := query.Order("priority ASC, created_at ASC").Limit(1).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		m := rows[0]
		if err := tx.Model(&models.MarketplaceJobModel{}).
			Where("id = ?", m.ID).
			Updates(map[string]any{
				"status":     job.StatusRunning,
				"started_at": now,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		m.Status = job.StatusRunning
		m.StartedAt = &now
		m.UpdatedAt = now
		claimed = m.ToDomain()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return claimed, nil
}

// ExpirePending moves PENDING jobs past their deadline to EXPIRED
func (r *GormJobRepository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.MarketplaceJobModel{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", job.StatusPending, now).
		Updates(map[string]any{
			"status":        job.StatusExpired,
			"error_message": "job expired before execution",
			"completed_at":  now,
			"updated_at":    now,
		})
	return result.RowsAffected, result.Error
}

// DeleteFinishedBefore removes terminal jobs that settled before the given instant.
// Children of a batch that has not settled yet are kept for its tally.
func (r *GormJobRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	unsettled := r.db.Model(&models.BatchJobModel{}).
		Select("id").
		Where("status IN ?", []job.BatchStatus{job.BatchStatusPending, job.BatchStatusRunning})
	result := r.db.WithContext(ctx).
		Where("status IN ? AND COALESCE(completed_at, updated_at) < ?", job.TerminalStatuses(), before).
		Where("batch_id IS NULL OR batch_id NOT IN (?)", unsettled).
		Delete(&models.MarketplaceJobModel{})
	return result.RowsAffected, result.Error
}

func jobsToDomain(rows []models.MarketplaceJobModel) []job.MarketplaceJob {
	jobs := make([]job.MarketplaceJob, len(rows))
	for i := range rows {
		jobs[i] = *rows[i].ToDomain()
	}
	return jobs
}

// Ensure GormJobRepository implements job.JobRepository
var _ job.JobRepository = (*GormJobRepository)(nil)
