package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

var (
	ErrWorkflowNotFound = shared.NewDomainError("NOT_FOUND", "workflow not found")
	// ErrWorkflowsDisabled is returned when no Temporal client is configured
	ErrWorkflowsDisabled = shared.NewDomainError("INVALID_STATE", "workflows are disabled")
)

// WorkflowClient is the part of client.Client the service uses
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
	GetWorkflow(ctx context.Context, workflowID, runID string) client.WorkflowRun
}

var _ WorkflowClient = (client.Client)(nil)

// RunInfo identifies a started workflow
type RunInfo struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// RunStatus is the state of a workflow as seen by its owner
type RunStatus struct {
	RunInfo
	Status    string        `json:"status"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
	Progress  *SyncProgress `json:"progress,omitempty"`
	Result    *SyncResult   `json:"result,omitempty"`
}

// SyncService starts sync workflows and reports on them
type SyncService struct {
	client    WorkflowClient
	taskQueue string
	timeout   time.Duration
}

// NewSyncService creates the service; a nil client disables it
func NewSyncService(c WorkflowClient, taskQueue string) *SyncService {
	return &SyncService{client: c, taskQueue: taskQueue, timeout: 6 * time.Hour}
}

// WorkflowID is stable per user and marketplace so that one sync runs at a time
func WorkflowID(userID uuid.UUID, m marketplace.Marketplace) string {
	return fmt.Sprintf("marketplace-sync-%s-%s", userID, strings.ToLower(string(m)))
}

func ownedBy(workflowID string, userID uuid.UUID) bool {
	return strings.HasPrefix(workflowID, fmt.Sprintf("marketplace-sync-%s-", userID))
}

// Start launches a sync. When a sync of the same marketplace is already
// running for the user, its run is returned instead of a new one.
func (s *SyncService) Start(ctx context.Context, in SyncInput) (*RunInfo, error) {
	if s.client == nil {
		return nil, ErrWorkflowsDisabled
	}
	plan, err := in.Plan()
	if err != nil {
		return nil, err
	}
	in.Scopes = plan

	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       WorkflowID(in.UserID, in.Marketplace),
		TaskQueue:                s.taskQueue,
		WorkflowExecutionTimeout: s.timeout,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, MarketplaceSyncWorkflow, in)
	if err != nil {
		return nil, fmt.Errorf("start sync workflow: %w", err)
	}
	return &RunInfo{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

// Status describes the latest run of workflowID. Running workflows report
// their progress, completed ones their result.
func (s *SyncService) Status(ctx context.Context, userID uuid.UUID, workflowID string) (*RunStatus, error) {
	if s.client == nil {
		return nil, ErrWorkflowsDisabled
	}
	if !ownedBy(workflowID, userID) {
		return nil, ErrWorkflowNotFound
	}

	desc, err := s.client.DescribeWorkflowExecution(ctx, workflowID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, fmt.Errorf("describe workflow: %w", err)
	}

	info := desc.GetWorkflowExecutionInfo()
	st := &RunStatus{
		RunInfo: RunInfo{
			WorkflowID: info.GetExecution().GetWorkflowId(),
			RunID:      info.GetExecution().GetRunId(),
		},
		Status: statusName(info.GetStatus()),
	}
	if ts := info.GetStartTime(); ts != nil {
		t := ts.AsTime()
		st.StartedAt = &t
	}
	if ts := info.GetCloseTime(); ts != nil {
		t := ts.AsTime()
		st.ClosedAt = &t
	}

	switch info.GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		value, err := s.client.QueryWorkflow(ctx, workflowID, st.RunID, ProgressQuery)
		if err != nil {
			return nil, fmt.Errorf("query workflow progress: %w", err)
		}
		var p SyncProgress
		if err := value.Get(&p); err != nil {
			return nil, fmt.Errorf("decode workflow progress: %w", err)
		}
		st.Progress = &p
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var r SyncResult
		if err := s.client.GetWorkflow(ctx, workflowID, st.RunID).Get(ctx, &r); err != nil {
			return nil, fmt.Errorf("get workflow result: %w", err)
		}
		st.Result = &r
	}
	return st, nil
}

func statusName(s enumspb.WorkflowExecutionStatus) string {
	switch s {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return "RUNNING"
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return "COMPLETED"
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED:
		return "FAILED"
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		return "CANCELLED"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED:
		return "TERMINATED"
	case enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "CONTINUED_AS_NEW"
	case enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return "TIMED_OUT"
	}
	return "UNKNOWN"
}
