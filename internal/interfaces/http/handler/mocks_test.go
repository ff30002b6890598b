package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.SetupValidator(); err != nil {
		panic(err)
	}
}

// ---------------------------------------------------------------------------
// Service mocks
// ---------------------------------------------------------------------------

type mockJobService struct {
	mock.Mock
}

func (m *mockJobService) CreateJob(ctx context.Context, in jobapp.CreateJobInput) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *mockJobService) GetJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *mockJobService) ListJobs(ctx context.Context, filter job.JobFilter) ([]job.MarketplaceJob, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]job.MarketplaceJob), args.Get(1).(int64), args.Error(2)
}

func (m *mockJobService) CancelJob(ctx context.Context, userID, id uuid.UUID) (*jobapp.CancelResult, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobapp.CancelResult), args.Error(1)
}

func (m *mockJobService) RetryJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.MarketplaceJob), args.Error(1)
}

func (m *mockJobService) Stats(ctx context.Context, userID uuid.UUID) (*jobapp.JobStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobapp.JobStats), args.Error(1)
}

type mockBatchService struct {
	mock.Mock
}

func (m *mockBatchService) CreateBatch(ctx context.Context, in jobapp.CreateBatchInput) (*jobapp.BatchView, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobapp.BatchView), args.Error(1)
}

func (m *mockBatchService) GetBatch(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobapp.BatchView), args.Error(1)
}

func (m *mockBatchService) ListBatches(ctx context.Context, filter job.BatchFilter) ([]job.BatchJob, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]job.BatchJob), args.Get(1).(int64), args.Error(2)
}

func (m *mockBatchService) BatchJobs(ctx context.Context, userID uuid.UUID, reference string, statuses ...job.Status) ([]job.MarketplaceJob, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.MarketplaceJob), args.Error(1)
}

func (m *mockBatchService) CancelBatch(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, int, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*jobapp.BatchView), args.Int(1), args.Error(2)
}

func (m *mockBatchService) RetryFailed(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, int, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*jobapp.BatchView), args.Int(1), args.Error(2)
}

type mockMappingService struct {
	mock.Mock
}

func (m *mockMappingService) ResolveCategory(ctx context.Context, q vinted.CategoryQuery) (int64, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockMappingService) MatchAttribute(ctx context.Context, kind vinted.AttributeKind, value, sizeGroup string) (vinted.AttributeMatch, error) {
	args := m.Called(ctx, kind, value, sizeGroup)
	return args.Get(0).(vinted.AttributeMatch), args.Error(1)
}

type mockProductFinder struct {
	mock.Mock
}

func (m *mockProductFinder) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

type mockSyncWorkflows struct {
	mock.Mock
}

func (m *mockSyncWorkflows) Start(ctx context.Context, in workflows.SyncInput) (*workflows.RunInfo, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflows.RunInfo), args.Error(1)
}

func (m *mockSyncWorkflows) Status(ctx context.Context, userID uuid.UUID, workflowID string) (*workflows.RunStatus, error) {
	args := m.Called(ctx, userID, workflowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflows.RunStatus), args.Error(1)
}

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// asUser authenticates every request of the engine as userID
// countingNotifier records how often the queue was woken
type countingNotifier struct {
	calls int
}

func (n *countingNotifier) Notify() { n.calls++ }

func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set(middleware.JWTUserIDKey, userID.String())
		}
		c.Set(middleware.RequestIDKey, "test-request")
		c.Next()
	}
}

func newEngine(userID uuid.UUID) *gin.Engine {
	engine := gin.New()
	engine.Use(asUser(userID))
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// decode unmarshals the envelope and, when out is non-nil, its data field
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Data, out))
	}
	return raw.Response
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w, nil)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}
