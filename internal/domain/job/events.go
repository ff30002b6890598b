package job

import (
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// Event types published on job transitions
const (
	EventTypeJobCompleted  = "marketplace_job.completed"
	EventTypeJobFailed     = "marketplace_job.failed"
	EventTypeJobCancelled  = "marketplace_job.cancelled"
	EventTypeJobRetried    = "marketplace_job.retried"
	EventTypeBatchFinished = "batch_job.finished"

	AggregateTypeJob   = "marketplace_job"
	AggregateTypeBatch = "batch_job"
)

// JobEvent carries the job snapshot at transition time
type JobEvent struct {
	shared.BaseDomainEvent
	Marketplace  marketplace.Marketplace `json:"marketplace"`
	Action       marketplace.Action      `json:"action"`
	Status       Status                  `json:"status"`
	RetryCount   int                     `json:"retry_count"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	Result       Payload                 `json:"result,omitempty"`
}

// NewJobEvent builds an event for j
func NewJobEvent(eventType string, j *MarketplaceJob) *JobEvent {
	return &JobEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeJob, j.ID, j.UserID),
		Marketplace:     j.Marketplace,
		Action:          j.Action,
		Status:          j.Status,
		RetryCount:      j.RetryCount,
		ErrorMessage:    j.ErrorMessage,
		Result:          j.ResultData,
	}
}

// EventTypeFor maps a job status to the event published for it
func EventTypeFor(s Status) string {
	switch s {
	case StatusCompleted:
		return EventTypeJobCompleted
	case StatusCancelled:
		return EventTypeJobCancelled
	case StatusPending:
		return EventTypeJobRetried
	default:
		return EventTypeJobFailed
	}
}

// BatchEvent is published when a batch settles
type BatchEvent struct {
	shared.BaseDomainEvent
	BatchID        string      `json:"batch_id"`
	Status         BatchStatus `json:"status"`
	TotalCount     int         `json:"total_count"`
	CompletedCount int         `json:"completed_count"`
	FailedCount    int         `json:"failed_count"`
}

// NewBatchEvent builds a finished event for b
func NewBatchEvent(b *BatchJob) *BatchEvent {
	return &BatchEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchFinished, AggregateTypeBatch, b.ID, b.UserID),
		BatchID:         b.BatchID,
		Status:          b.Status,
		TotalCount:      b.TotalCount,
		CompletedCount:  b.CompletedCount,
		FailedCount:     b.FailedCount,
	}
}
