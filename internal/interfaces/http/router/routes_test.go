package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/handler"
)

// stubJobs answers every read with an empty result
type stubJobs struct {
	handler.JobService
}

func (stubJobs) ListJobs(context.Context, job.JobFilter) ([]job.MarketplaceJob, int64, error) {
	return nil, 0, nil
}

func (stubJobs) Stats(_ context.Context, userID uuid.UUID) (*jobapp.JobStats, error) {
	return &jobapp.JobStats{UserID: userID, Counts: map[job.Status]int{}, At: time.Now()}, nil
}

func newTestEngine(t *testing.T, rate float64) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "router-test-secret-at-least-32-chars",
		Issuer:                "stoflow",
		AccessTokenExpiration: time.Hour,
		PluginTokenExpiration: time.Hour,
	})
	engine := New(Options{
		HTTP: config.HTTPConfig{
			MaxBodySize:        1 << 20,
			CORSAllowOrigins:   []string{"http://localhost:3000"},
			CORSAllowMethods:   []string{"GET", "POST"},
			CORSAllowHeaders:   []string{"Authorization"},
			RateLimitPerSecond: rate,
			RateLimitBurst:     1,
		},
		ServiceName: "stoflow-test",
		Auth:        jwtSvc,
		Metrics:     telemetry.NewMetrics(),
	}, Handlers{
		Jobs:   handler.NewJobHandler(stubJobs{}),
		Plugin: handler.NewPluginHandler(nil, jwtSvc),
		System: handler.NewSystemHandler("stoflow", "test"),
	})
	return engine, jwtSvc
}

func authorized(t *testing.T, svc *auth.JWTService, method, path string) *http.Request {
	t.Helper()
	tok, err := svc.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	return req
}

func TestNew_PublicRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/health").Code)

	w := serve(engine, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stoflow_http_requests_total")
}

func TestNew_RequiresToken(t *testing.T) {
	engine, svc := newTestEngine(t, 0)

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/jobs").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/plugin/ws").Code)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, authorized(t, svc, http.MethodGet, "/api/v1/jobs?status=pending,running"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, authorized(t, svc, http.MethodGet, "/api/v1/jobs/stats"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, authorized(t, svc, http.MethodPost, "/api/v1/plugin/token"))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `"token"`))
}

func TestNew_CORSPreflight(t *testing.T) {
	engine, _ := newTestEngine(t, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_UserRateLimit(t *testing.T) {
	engine, svc := newTestEngine(t, 0.001)
	tok, err := svc.GenerateAccessToken(uuid.New(), "")
	require.NoError(t, err)

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Token)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusTooManyRequests, do())
}
