package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBatchRepository implements job.BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// FindByID finds a batch by its row ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.BatchJob, error) {
	var m models.BatchJobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrBatchNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByReference finds a user's batch by its human-readable batch id
func (r *GormBatchRepository) FindByReference(ctx context.Context, userID uuid.UUID, batchID string) (*job.BatchJob, error) {
	var m models.BatchJobModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND batch_id = ?", userID, batchID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, job.ErrBatchNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindAll lists batches matching the filter together with the unpaginated total
func (r *GormBatchRepository) FindAll(ctx context.Context, filter job.BatchFilter) ([]job.BatchJob, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BatchJobModel{}).Where("user_id = ?", filter.UserID)
	if filter.Marketplace != "" {
		query = query.Where("marketplace = ?", filter.Marketplace)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, BatchSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)

	var rows []models.BatchJobModel
	if err := query.
		Order(fmt.Sprintf("%s %s", orderBy, orderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return batchesToDomain(rows), total, nil
}

// FindActive returns every batch that has not settled yet
func (r *GormBatchRepository) FindActive(ctx context.Context) ([]job.BatchJob, error) {
	var rows []models.BatchJobModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []job.BatchStatus{job.BatchStatusPending, job.BatchStatusRunning}).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return batchesToDomain(rows), nil
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, b *job.BatchJob) error {
	return r.db.WithContext(ctx).Save(models.BatchJobModelFromDomain(b)).Error
}

// UpdateFrom writes the batch's progress columns guarded by its previous status
func (r *GormBatchRepository) UpdateFrom(ctx context.Context, b *job.BatchJob, from job.BatchStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchJobModel{}).
		Where("id = ? AND status = ?", b.ID, from).
		Updates(map[string]any{
			"status":          b.Status,
			"total_count":     b.TotalCount,
			"completed_count": b.CompletedCount,
			"failed_count":    b.FailedCount,
			"cancelled_count": b.CancelledCount,
			"started_at":      b.StartedAt,
			"completed_at":    b.CompletedAt,
			"updated_at":      b.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return job.ErrBatchConflict
	}
	return nil
}

func batchesToDomain(rows []models.BatchJobModel) []job.BatchJob {
	batches := make([]job.BatchJob, len(rows))
	for i := range rows {
		batches[i] = *rows[i].ToDomain()
	}
	return batches
}

// Ensure GormBatchRepository implements job.BatchRepository
var _ job.BatchRepository = (*GormBatchRepository)(nil)
