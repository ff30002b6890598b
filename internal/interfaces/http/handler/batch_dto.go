package handler

import (
	"time"

	"github.com/google/uuid"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// CreateBatchRequest creates one child job per product
type CreateBatchRequest struct {
	Marketplace string         `json:"marketplace" binding:"required,marketplace"`
	Action      string         `json:"action" binding:"required,job_action"`
	ProductIDs  []string       `json:"product_ids" binding:"required,min=1,max=1000,dive,uuid"`
	Priority    int            `json:"priority" binding:"omitempty,min=1,max=4"`
	InputData   map[string]any `json:"input_data"`
}

// ListBatchesRequest holds the query of GET /batches
type ListBatchesRequest struct {
	dto.ListRequest
	Marketplace string   `form:"marketplace" binding:"omitempty,marketplace"`
	Status      []string `form:"status"`
}

// BatchRequest addresses a batch by its public reference
type BatchRequest struct {
	BatchID string `uri:"batch_id" binding:"required,max=64"`
}

// BatchResponse is the API view of a batch and its live progress
type BatchResponse struct {
	ID             uuid.UUID         `json:"id"`
	BatchID        string            `json:"batch_id"`
	Marketplace    string            `json:"marketplace"`
	Action         string            `json:"action"`
	Priority       int               `json:"priority"`
	Status         string            `json:"status"`
	TotalCount     int               `json:"total_count"`
	CompletedCount int               `json:"completed_count"`
	FailedCount    int               `json:"failed_count"`
	CancelledCount int               `json:"cancelled_count"`
	Progress       job.BatchProgress `json:"progress"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	Jobs           []JobResponse     `json:"jobs,omitempty"`
}

// BatchActionResponse reports how many child jobs an action touched
type BatchActionResponse struct {
	Batch    BatchResponse `json:"batch"`
	Affected int           `json:"affected"`
}

func toBatchResponse(b *job.BatchJob, p job.BatchProgress) BatchResponse {
	return BatchResponse{
		ID:             b.ID,
		BatchID:        b.BatchID,
		Marketplace:    string(b.Marketplace),
		Action:         string(b.Action),
		Priority:       int(b.Priority),
		Status:         string(b.Status),
		TotalCount:     b.TotalCount,
		CompletedCount: b.CompletedCount,
		FailedCount:    b.FailedCount,
		CancelledCount: b.CancelledCount,
		Progress:       p,
		StartedAt:      b.StartedAt,
		CompletedAt:    b.CompletedAt,
		CreatedAt:      b.CreatedAt,
	}
}

func toBatchViewResponse(v *jobapp.BatchView) BatchResponse {
	return toBatchResponse(v.Batch, v.Progress)
}

// toBatchSummaries renders list rows from their stored counters
func toBatchSummaries(batches []job.BatchJob) []BatchResponse {
	out := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		b := &batches[i]
		out = append(out, toBatchResponse(b, b.StoredProgress()))
	}
	return out
}
