package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// CreateJobInput describes a single job to enqueue
type CreateJobInput struct {
	UserID      uuid.UUID
	Marketplace marketplace.Marketplace
	Action      marketplace.Action
	ProductID   *uuid.UUID
	BatchID     *uuid.UUID
	// Priority overrides the action default when non-zero
	Priority marketplace.Priority
	// MaxRetries overrides the action default when non-nil
	MaxRetries *int
	InputData  job.Payload
}

// CreateBatchInput describes a bulk operation over products
type CreateBatchInput struct {
	UserID      uuid.UUID
	Marketplace marketplace.Marketplace
	Action      marketplace.Action
	ProductIDs  []uuid.UUID
	Priority    marketplace.Priority
	InputData   job.Payload
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// CancelResult reports the outcome of a cancellation
type CancelResult struct {
	Job *job.MarketplaceJob
	// Acknowledged is true when no executor holds the job any more
	Acknowledged bool
}

// MaintenanceReport summarizes one sweeper pass
type MaintenanceReport struct {
	Expired         int64
	OrphansRequeued int
	OrphansFailed   int
	Deleted         int64
	BatchesSettled  int
}

// JobStats is the per-status tally for a user
type JobStats struct {
	UserID uuid.UUID          `json:"user_id"`
	Counts map[job.Status]int `json:"counts"`
	Total  int                `json:"total"`
	At     time.Time          `json:"at"`
}

// BatchView is a batch with fresh progress
type BatchView struct {
	Batch    *job.BatchJob
	Progress job.BatchProgress
}
