package job

import (
	"errors"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

var (
	ErrJobNotFound        = shared.NewDomainError("NOT_FOUND", "marketplace job not found")
	ErrBatchNotFound      = shared.NewDomainError("NOT_FOUND", "batch job not found")
	ErrDuplicateJob       = shared.NewDomainError("ALREADY_EXISTS", "an active job already exists for this product and action")
	ErrJobAlreadyFinished = shared.NewDomainError("INVALID_STATE", "job is already finished")
	ErrJobNotRunning      = shared.NewDomainError("INVALID_STATE", "job is not running")
	ErrJobNotRetryable    = shared.NewDomainError("INVALID_STATE", "job cannot be retried in its current status")
	ErrEmptyBatch         = shared.NewDomainError("INVALID_INPUT", "batch requires at least one product")
	ErrProductRequired    = shared.NewDomainError("INVALID_INPUT", "action requires a product")
	ErrJobConflict        = shared.NewDomainError("CONCURRENCY_CONFLICT", "job status changed concurrently")
	ErrBatchConflict      = shared.NewDomainError("CONCURRENCY_CONFLICT", "batch status changed concurrently")

	// ErrLockUnavailable means another executor holds the job's advisory lock
	ErrLockUnavailable = errors.New("job: execution lock held elsewhere")
)
