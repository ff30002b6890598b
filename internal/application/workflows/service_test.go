package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	commonpb "go.temporal.io/api/common/v1"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	workflowpb "go.temporal.io/api/workflow/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.temporal.io/sdk/mocks"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// MockWorkflowClient is a mock implementation of WorkflowClient
type MockWorkflowClient struct {
	mock.Mock
}

func (m *MockWorkflowClient) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	ret := m.Called(ctx, options, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(client.WorkflowRun), ret.Error(1)
}

func (m *MockWorkflowClient) DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error) {
	ret := m.Called(ctx, workflowID, runID)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*workflowservice.DescribeWorkflowExecutionResponse), ret.Error(1)
}

func (m *MockWorkflowClient) QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error) {
	ret := m.Called(ctx, workflowID, runID, queryType)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(converter.EncodedValue), ret.Error(1)
}

func (m *MockWorkflowClient) GetWorkflow(ctx context.Context, workflowID, runID string) client.WorkflowRun {
	return m.Called(ctx, workflowID, runID).Get(0).(client.WorkflowRun)
}

// progressValue is a decoded query result
type progressValue struct {
	p SyncProgress
}

func (v progressValue) HasValue() bool { return true }

func (v progressValue) Get(valuePtr interface{}) error {
	*valuePtr.(*SyncProgress) = v.p
	return nil
}

func describeResponse(id, runID string, status enumspb.WorkflowExecutionStatus, started time.Time) *workflowservice.DescribeWorkflowExecutionResponse {
	return &workflowservice.DescribeWorkflowExecutionResponse{
		WorkflowExecutionInfo: &workflowpb.WorkflowExecutionInfo{
			Execution: &commonpb.WorkflowExecution{WorkflowId: id, RunId: runID},
			Status:    status,
			StartTime: timestamppb.New(started),
		},
	}
}

func TestSyncService_Start(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	wfClient := new(MockWorkflowClient)
	svc := NewSyncService(wfClient, "stoflow-sync")

	run := new(mocks.WorkflowRun)
	run.On("GetID").Return(WorkflowID(userID, marketplace.Ebay))
	run.On("GetRunID").Return("run-1")

	wfClient.On("ExecuteWorkflow", ctx, mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return o.ID == "marketplace-sync-"+userID.String()+"-ebay" &&
			o.TaskQueue == "stoflow-sync" &&
			o.WorkflowIDConflictPolicy == enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING
	}), mock.MatchedBy(func(args []interface{}) bool {
		in, ok := args[0].(SyncInput)
		return ok && len(in.Scopes) == 4 && in.UserID == userID
	})).Return(run, nil)

	info, err := svc.Start(ctx, SyncInput{UserID: userID, Marketplace: marketplace.Ebay})
	require.NoError(t, err)
	assert.Equal(t, "run-1", info.RunID)
	assert.Equal(t, WorkflowID(userID, marketplace.Ebay), info.WorkflowID)
	wfClient.AssertExpectations(t)
}

func TestSyncService_StartRejectsInvalidInput(t *testing.T) {
	wfClient := new(MockWorkflowClient)
	svc := NewSyncService(wfClient, "q")

	_, err := svc.Start(context.Background(), SyncInput{
		UserID:      uuid.New(),
		Marketplace: marketplace.Vinted,
		Scopes:      []SyncScope{ScopePolicies},
	})
	assert.ErrorIs(t, err, ErrInvalidSyncInput)
	wfClient.AssertNotCalled(t, "ExecuteWorkflow")
}

func TestSyncService_Disabled(t *testing.T) {
	svc := NewSyncService(nil, "q")

	_, err := svc.Start(context.Background(), SyncInput{UserID: uuid.New(), Marketplace: marketplace.Vinted})
	assert.ErrorIs(t, err, ErrWorkflowsDisabled)

	_, err = svc.Status(context.Background(), uuid.New(), "marketplace-sync-x-vinted")
	assert.ErrorIs(t, err, ErrWorkflowsDisabled)
}

func TestSyncService_Status(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	id := WorkflowID(userID, marketplace.Vinted)
	started := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	t.Run("running reports progress", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")
		wfClient.On("DescribeWorkflowExecution", ctx, id, "").
			Return(describeResponse(id, "run-1", enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING, started), nil)
		wfClient.On("QueryWorkflow", ctx, id, "run-1", ProgressQuery).
			Return(progressValue{p: SyncProgress{Current: ScopeOrders, Pending: []SyncScope{ScopeMessages}}}, nil)

		st, err := svc.Status(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, "RUNNING", st.Status)
		assert.Equal(t, "run-1", st.RunID)
		require.NotNil(t, st.StartedAt)
		assert.True(t, started.Equal(*st.StartedAt))
		require.NotNil(t, st.Progress)
		assert.Equal(t, ScopeOrders, st.Progress.Current)
		assert.Nil(t, st.Result)
	})

	t.Run("completed reports result", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")
		wfClient.On("DescribeWorkflowExecution", ctx, id, "").
			Return(describeResponse(id, "run-2", enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED, started), nil)

		run := new(mocks.WorkflowRun)
		run.On("Get", ctx, mock.AnythingOfType("*workflows.SyncResult")).
			Run(func(args mock.Arguments) {
				*args.Get(1).(*SyncResult) = SyncResult{
					Marketplace: marketplace.Vinted,
					Scopes:      []ScopeResult{{Scope: ScopeListings}},
				}
			}).
			Return(nil)
		wfClient.On("GetWorkflow", ctx, id, "run-2").Return(run)

		st, err := svc.Status(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", st.Status)
		require.NotNil(t, st.Result)
		assert.Len(t, st.Result.Scopes, 1)
	})

	t.Run("failed has neither", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")
		wfClient.On("DescribeWorkflowExecution", ctx, id, "").
			Return(describeResponse(id, "run-3", enumspb.WORKFLOW_EXECUTION_STATUS_FAILED, started), nil)

		st, err := svc.Status(ctx, userID, id)
		require.NoError(t, err)
		assert.Equal(t, "FAILED", st.Status)
		assert.Nil(t, st.Progress)
		assert.Nil(t, st.Result)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")
		wfClient.On("DescribeWorkflowExecution", ctx, id, "").
			Return(nil, serviceerror.NewNotFound("workflow not found"))

		_, err := svc.Status(ctx, userID, id)
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
	})

	t.Run("other user's workflow", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")

		_, err := svc.Status(ctx, uuid.New(), id)
		assert.ErrorIs(t, err, ErrWorkflowNotFound)
		wfClient.AssertNotCalled(t, "DescribeWorkflowExecution", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("describe error", func(t *testing.T) {
		wfClient := new(MockWorkflowClient)
		svc := NewSyncService(wfClient, "q")
		wfClient.On("DescribeWorkflowExecution", ctx, id, "").Return(nil, errors.New("unavailable"))

		_, err := svc.Status(ctx, userID, id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrWorkflowNotFound)
	})
}
