package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// StartSyncRequest is the body of POST /workflows/sync.
// No scopes means every scope the marketplace supports.
type StartSyncRequest struct {
	Marketplace string   `json:"marketplace" binding:"required,marketplace"`
	Scopes      []string `json:"scopes" binding:"max=5"`
}

// WorkflowRequest addresses a workflow run
type WorkflowRequest struct {
	WorkflowID string `uri:"workflow_id" binding:"required,max=200"`
}

// WorkflowHandler starts and inspects durable sync runs
type WorkflowHandler struct {
	BaseHandler
	syncs SyncWorkflows
}

// NewWorkflowHandler creates a new WorkflowHandler
func NewWorkflowHandler(syncs SyncWorkflows) *WorkflowHandler {
	return &WorkflowHandler{syncs: syncs}
}

// StartSync launches a sync, or returns the run already in progress.
// POST /workflows/sync
func (h *WorkflowHandler) StartSync(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req StartSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	scopes, err := workflows.ParseScopes(req.Scopes)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	m, _ := marketplace.ParseMarketplace(req.Marketplace)

	run, err := h.syncs.Start(c.Request.Context(), workflows.SyncInput{
		UserID:      userID,
		Marketplace: m,
		Scopes:      scopes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, run)
}

// Status reports a run's state, progress and result. GET /workflows/:workflow_id
func (h *WorkflowHandler) Status(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req WorkflowRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BindError(c, err)
		return
	}

	status, err := h.syncs.Status(c.Request.Context(), userID, req.WorkflowID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}
