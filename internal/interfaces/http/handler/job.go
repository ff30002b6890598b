package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// JobHandler serves /jobs
type JobHandler struct {
	BaseHandler
	jobs     JobService
	notifier QueueNotifier
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// WithNotifier wakes n whenever a job is queued or re-queued
func (h *JobHandler) WithNotifier(n QueueNotifier) *JobHandler {
	h.notifier = n
	return h
}

func (h *JobHandler) notify() {
	if h.notifier != nil {
		h.notifier.Notify()
	}
}

// Create enqueues a job. POST /jobs
func (h *JobHandler) Create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	// binding already checked both codes
	m, _ := marketplace.ParseMarketplace(req.Marketplace)
	a, _ := marketplace.ParseAction(req.Action)

	in := jobapp.CreateJobInput{
		UserID:      userID,
		Marketplace: m,
		Action:      a,
		Priority:    marketplace.Priority(req.Priority),
		MaxRetries:  req.MaxRetries,
		InputData:   req.InputData,
	}
	if req.ProductID != "" {
		pid := uuid.MustParse(req.ProductID)
		in.ProductID = &pid
	}

	j, err := h.jobs.CreateJob(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.notify()
	h.Created(c, toJobResponse(j))
}

// List pages through the caller's jobs. GET /jobs
func (h *JobHandler) List(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := job.JobFilter{
		Filter: toFilter(req.ListRequest),
		UserID: userID,
	}
	if req.Marketplace != "" {
		filter.Marketplace, _ = marketplace.ParseMarketplace(req.Marketplace)
	}
	if req.Action != "" {
		filter.Action, _ = marketplace.ParseAction(req.Action)
	}
	for _, s := range splitValues(req.Status) {
		status := job.Status(s)
		if !status.IsValid() {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "status", Message: fmt.Sprintf("Unknown status %q", s)}})
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if req.BatchID != "" {
		id := uuid.MustParse(req.BatchID)
		filter.BatchID = &id
	}
	if req.ProductID != "" {
		id := uuid.MustParse(req.ProductID)
		filter.ProductID = &id
	}

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toJobResponses(jobs), total, filter.Page, filter.PageSize)
}

// Get returns one job. GET /jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	userID, id, ok := h.jobParams(c)
	if !ok {
		return
	}
	j, err := h.jobs.GetJob(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toJobResponse(j))
}

// Cancel requests cancellation. POST /jobs/:id/cancel
//
// A pending job is cancelled at once. A running job is flagged and the
// response reports whether its executor has already let go.
func (h *JobHandler) Cancel(c *gin.Context) {
	userID, id, ok := h.jobParams(c)
	if !ok {
		return
	}
	res, err := h.jobs.CancelJob(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CancelJobResponse{Job: toJobResponse(res.Job), Acknowledged: res.Acknowledged})
}

// Retry requeues a failed, cancelled or expired job. POST /jobs/:id/retry
func (h *JobHandler) Retry(c *gin.Context) {
	userID, id, ok := h.jobParams(c)
	if !ok {
		return
	}
	j, err := h.jobs.RetryJob(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.notify()
	h.Success(c, toJobResponse(j))
}

// Stats tallies the caller's jobs by status. GET /jobs/stats
func (h *JobHandler) Stats(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	stats, err := h.jobs.Stats(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toJobStatsResponse(stats))
}

func (h *JobHandler) jobParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.requireUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, uuid.MustParse(req.ID), true
}
