package handler

import (
	"strings"
	"time"

	"github.com/google/uuid"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// CreateJobRequest enqueues one marketplace job
type CreateJobRequest struct {
	Marketplace string         `json:"marketplace" binding:"required,marketplace"`
	Action      string         `json:"action" binding:"required,job_action"`
	ProductID   string         `json:"product_id" binding:"omitempty,uuid"`
	Priority    int            `json:"priority" binding:"omitempty,min=1,max=4"`
	MaxRetries  *int           `json:"max_retries" binding:"omitempty,min=0,max=10"`
	InputData   map[string]any `json:"input_data"`
}

// ListJobsRequest holds the query of GET /jobs
type ListJobsRequest struct {
	dto.ListRequest
	Marketplace string   `form:"marketplace" binding:"omitempty,marketplace"`
	Action      string   `form:"action" binding:"omitempty,job_action"`
	Status      []string `form:"status"`
	BatchID     string   `form:"batch_id" binding:"omitempty,uuid"`
	ProductID   string   `form:"product_id" binding:"omitempty,uuid"`
}

// JobResponse is the API view of a marketplace job
type JobResponse struct {
	ID           uuid.UUID      `json:"id"`
	Marketplace  string         `json:"marketplace"`
	Action       string         `json:"action"`
	ProductID    *uuid.UUID     `json:"product_id,omitempty"`
	BatchID      *uuid.UUID     `json:"batch_id,omitempty"`
	Status       string         `json:"status"`
	Priority     int            `json:"priority"`
	RetryCount   int            `json:"retry_count"`
	MaxRetries   int            `json:"max_retries"`
	InputData    map[string]any `json:"input_data,omitempty"`
	ResultData   map[string]any `json:"result_data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CancelJobResponse reports whether the executor has let go of the job
type CancelJobResponse struct {
	Job          JobResponse `json:"job"`
	Acknowledged bool        `json:"acknowledged"`
}

// JobStatsResponse is the per-status tally of the caller's jobs
type JobStatsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
	At     time.Time      `json:"at"`
}

func toJobResponse(j *job.MarketplaceJob) JobResponse {
	return JobResponse{
		ID:           j.ID,
		Marketplace:  string(j.Marketplace),
		Action:       string(j.Action),
		ProductID:    j.ProductID,
		BatchID:      j.BatchID,
		Status:       string(j.Status),
		Priority:     int(j.Priority),
		RetryCount:   j.RetryCount,
		MaxRetries:   j.MaxRetries,
		InputData:    j.InputData,
		ResultData:   j.ResultData,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		CompletedAt:  j.CompletedAt,
		ExpiresAt:    j.ExpiresAt,
		CreatedAt:    j.CreatedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func toJobResponses(jobs []job.MarketplaceJob) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	return out
}

func toJobStatsResponse(s *jobapp.JobStats) JobStatsResponse {
	counts := make(map[string]int, len(s.Counts))
	for status, n := range s.Counts {
		counts[string(status)] = n
	}
	return JobStatsResponse{Counts: counts, Total: s.Total, At: s.At}
}

// toFilter applies the list defaults
func toFilter(req dto.ListRequest) shared.Filter {
	def := dto.DefaultListRequest()
	f := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
	if f.Page <= 0 {
		f.Page = def.Page
	}
	if f.PageSize <= 0 {
		f.PageSize = def.PageSize
	}
	if f.OrderBy == "" {
		f.OrderBy = def.OrderBy
	}
	if f.OrderDir == "" {
		f.OrderDir = def.OrderDir
	}
	return f
}

// splitValues accepts both ?status=A&status=B and ?status=A,B
func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
