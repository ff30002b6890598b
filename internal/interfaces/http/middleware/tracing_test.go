package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
)

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(t.Context())
	})
	return recorder
}

func TestTracing(t *testing.T) {
	recorder := withSpanRecorder(t)

	router := gin.New()
	router.Use(RequestID())
	router.Use(TracingWithConfig(TracingConfig{ServiceName: "stoflow-test", Enabled: true}))
	router.Use(SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		setClaims(c, &auth.Claims{UserID: "7f0c3b9e-4a51-4a55-9a0d-3d0f6f0b9a11"})
		c.Next()
	})
	router.Use(TracingAttributeInjector())
	router.GET("/api/v1/jobs/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/42", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Equal(t, "Not Found", span.Status().Description)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "7f0c3b9e-4a51-4a55-9a0d-3d0f6f0b9a11", attrs["user_id"].AsString())
	assert.Equal(t, w.Header().Get(RequestIDHeader), attrs["request_id"].AsString())
}

func TestTracing_Disabled(t *testing.T) {
	recorder := withSpanRecorder(t)

	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}
