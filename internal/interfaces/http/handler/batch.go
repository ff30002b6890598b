package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// BatchHandler serves /batches
type BatchHandler struct {
	BaseHandler
	batches  BatchService
	notifier QueueNotifier
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batches BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// WithNotifier wakes n whenever batch children are queued
func (h *BatchHandler) WithNotifier(n QueueNotifier) *BatchHandler {
	h.notifier = n
	return h
}

func (h *BatchHandler) notify() {
	if h.notifier != nil {
		h.notifier.Notify()
	}
}

// Create starts a bulk operation. POST /batches
func (h *BatchHandler) Create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	m, _ := marketplace.ParseMarketplace(req.Marketplace)
	a, _ := marketplace.ParseAction(req.Action)
	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		ids = append(ids, uuid.MustParse(raw))
	}

	view, err := h.batches.CreateBatch(c.Request.Context(), jobapp.CreateBatchInput{
		UserID:      userID,
		Marketplace: m,
		Action:      a,
		ProductIDs:  ids,
		Priority:    marketplace.Priority(req.Priority),
		InputData:   req.InputData,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.notify()
	h.Created(c, toBatchViewResponse(view))
}

// List pages through the caller's batches. GET /batches
func (h *BatchHandler) List(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	filter := job.BatchFilter{
		Filter: toFilter(req.ListRequest),
		UserID: userID,
	}
	if req.Marketplace != "" {
		filter.Marketplace, _ = marketplace.ParseMarketplace(req.Marketplace)
	}
	for _, s := range splitValues(req.Status) {
		status := job.BatchStatus(s)
		if !status.IsValid() {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "status", Message: fmt.Sprintf("Unknown status %q", s)}})
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	batches, total, err := h.batches.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toBatchSummaries(batches), total, filter.Page, filter.PageSize)
}

// Get returns a batch with fresh progress. GET /batches/:batch_id
// With ?include_jobs=true the child jobs are listed too.
func (h *BatchHandler) Get(c *gin.Context) {
	userID, ref, ok := h.batchParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	view, err := h.batches.GetBatch(ctx, userID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := toBatchViewResponse(view)

	if include, _ := strconv.ParseBool(c.Query("include_jobs")); include {
		jobs, err := h.batches.BatchJobs(ctx, userID, ref)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Jobs = toJobResponses(jobs)
	}
	h.Success(c, resp)
}

// Cancel cancels every pending or running child. POST /batches/:batch_id/cancel
func (h *BatchHandler) Cancel(c *gin.Context) {
	userID, ref, ok := h.batchParams(c)
	if !ok {
		return
	}
	view, n, err := h.batches.CancelBatch(c.Request.Context(), userID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, BatchActionResponse{Batch: toBatchViewResponse(view), Affected: n})
}

// RetryFailed requeues the failed children. POST /batches/:batch_id/retry-failed
func (h *BatchHandler) RetryFailed(c *gin.Context) {
	userID, ref, ok := h.batchParams(c)
	if !ok {
		return
	}
	view, n, err := h.batches.RetryFailed(c.Request.Context(), userID, ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if n > 0 {
		h.notify()
	}
	h.Success(c, BatchActionResponse{Batch: toBatchViewResponse(view), Affected: n})
}

func (h *BatchHandler) batchParams(c *gin.Context) (uuid.UUID, string, bool) {
	userID, ok := h.requireUser(c)
	if !ok {
		return uuid.Nil, "", false
	}
	var req BatchRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return uuid.Nil, "", false
	}
	return userID, req.BatchID, true
}
