package job

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// Payload is the free-form JSON attached to a job as input or result
type Payload map[string]any

// MarketplaceJob is one unit of marketplace work
type MarketplaceJob struct {
	shared.BaseEntity
	UserID        uuid.UUID
	Marketplace   marketplace.Marketplace
	Action        marketplace.Action
	ProductID     *uuid.UUID
	BatchID       *uuid.UUID
	Status        Status
	Priority      marketplace.Priority
	RetryCount    int
	MaxRetries    int
	InputData     Payload
	ResultData    Payload
	ErrorMessage  string
	StartedAt     *time.Time
	CompletedAt   *time.Time
	ExpiresAt     *time.Time
	// NextAttemptAt holds a re-queued job back until its retry delay elapsed
	NextAttemptAt *time.Time
}

const (
	RetryBaseDelay = 10 * time.Second
	RetryMaxDelay  = 10 * time.Minute
)

// RetryDelay is the wait before the given retry attempt (1-based): the base
// delay doubled per attempt, capped at RetryMaxDelay.
func RetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := RetryBaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= RetryMaxDelay {
			return RetryMaxDelay
		}
	}
	return d
}

// NewMarketplaceJob builds a PENDING job using the action defaults
func NewMarketplaceJob(userID uuid.UUID, spec marketplace.ActionSpec, productID *uuid.UUID, input Payload) *MarketplaceJob {
	base := shared.NewBaseEntity()
	expires := base.CreatedAt.Add(spec.Timeout)
	if input == nil {
		input = Payload{}
	}
	return &MarketplaceJob{
		BaseEntity:  base,
		UserID:      userID,
		Marketplace: spec.Marketplace,
		Action:      spec.Action,
		ProductID:   productID,
		Status:      StatusPending,
		Priority:    spec.Priority,
		MaxRetries:  spec.MaxRetries,
		InputData:   input,
		ExpiresAt:   &expires,
	}
}

// OwnerID implements shared.UserOwned
func (j *MarketplaceJob) OwnerID() uuid.UUID {
	return j.UserID
}

// IsExpired reports whether a pending job outlived its deadline
func (j *MarketplaceJob) IsExpired(now time.Time) bool {
	return j.Status == StatusPending && j.ExpiresAt != nil && j.ExpiresAt.Before(now)
}

// CanRetry reports whether a failure may be re-queued
func (j *MarketplaceJob) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// Start moves a pending job to RUNNING
func (j *MarketplaceJob) Start(now time.Time) error {
	if j.Status != StatusPending {
		return ErrJobAlreadyFinished
	}
	j.Status = StatusRunning
	j.StartedAt = &now
	j.NextAttemptAt = nil
	j.UpdatedAt = now
	return nil
}

// Complete moves a running job to COMPLETED
func (j *MarketplaceJob) Complete(now time.Time, result Payload) error {
	if j.Status != StatusRunning {
		return ErrJobNotRunning
	}
	j.Status = StatusCompleted
	j.ResultData = result
	j.ErrorMessage = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Fail records a failure. Retryable failures with retries left go back to PENDING
// and become claimable again after RetryDelay. It returns true when the job was re-queued.
func (j *MarketplaceJob) Fail(now time.Time, errMsg string, retryable bool) (bool, error) {
	if j.Status != StatusRunning {
		return false, ErrJobNotRunning
	}
	j.ErrorMessage = errMsg
	j.UpdatedAt = now
	if retryable && j.CanRetry() {
		j.RetryCount++
		j.Status = StatusPending
		j.StartedAt = nil
		next := now.Add(RetryDelay(j.RetryCount))
		j.NextAttemptAt = &next
		return true, nil
	}
	j.NextAttemptAt = nil
	j.Status = StatusFailed
	j.CompletedAt = &now
	return false, nil
}

// Cancel stops a pending or running job
func (j *MarketplaceJob) Cancel(now time.Time) error {
	if j.Status.IsFinal() {
		return ErrJobAlreadyFinished
	}
	j.Status = StatusCancelled
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Expire marks a pending job as EXPIRED
func (j *MarketplaceJob) Expire(now time.Time) error {
	if j.Status != StatusPending {
		return ErrJobAlreadyFinished
	}
	j.Status = StatusExpired
	j.CompletedAt = &now
	j.UpdatedAt = now
	return nil
}

// Reset puts a finished, unsuccessful job back in the queue with a fresh deadline
func (j *MarketplaceJob) Reset(now time.Time, timeout time.Duration) error {
	switch j.Status {
	case StatusFailed, StatusExpired, StatusCancelled:
	default:
		return ErrJobNotRetryable
	}
	expires := now.Add(timeout)
	j.Status = StatusPending
	j.RetryCount = 0
	j.ErrorMessage = ""
	j.StartedAt = nil
	j.CompletedAt = nil
	j.NextAttemptAt = nil
	j.ExpiresAt = &expires
	j.UpdatedAt = now
	return nil
}

// Requeue returns a RUNNING job to PENDING without consuming a retry
func (j *MarketplaceJob) Requeue(now time.Time) {
	j.Status = StatusPending
	j.StartedAt = nil
	j.NextAttemptAt = nil
	j.UpdatedAt = now
}

// Duration returns the execution time once finished
func (j *MarketplaceJob) Duration() time.Duration {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(*j.StartedAt)
}

// Input decodes InputData into v
func (j *MarketplaceJob) Input(v any) error {
	raw, err := json.Marshal(j.InputData)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// InputString returns a string field from InputData
func (j *MarketplaceJob) InputString(key string) string {
	if v, ok := j.InputData[key].(string); ok {
		return v
	}
	return ""
}
