package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newCORSRouter(cfg CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(CORSWithConfig(cfg))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestCORSWithConfig(t *testing.T) {
	cfg := CORSConfig{
		AllowOrigins:     []string{"http://localhost:3000", "https://app.stoflow.io"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantCredent string
	}{
		{"allowed origin", cfg.AllowOrigins, http.MethodGet, "http://localhost:3000", http.StatusOK, "http://localhost:3000", "true"},
		{"second allowed origin", cfg.AllowOrigins, http.MethodGet, "https://app.stoflow.io", http.StatusOK, "https://app.stoflow.io", "true"},
		{"unknown origin", cfg.AllowOrigins, http.MethodGet, "http://evil.example", http.StatusOK, "", ""},
		{"same origin", cfg.AllowOrigins, http.MethodGet, "", http.StatusOK, "", ""},
		{"preflight allowed", cfg.AllowOrigins, http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "http://localhost:3000", "true"},
		{"preflight rejected", cfg.AllowOrigins, http.MethodOptions, "http://evil.example", http.StatusNoContent, "", ""},
		{"empty whitelist", nil, http.MethodGet, "http://localhost:3000", http.StatusOK, "", ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://anything.example", http.StatusOK, "*", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.AllowOrigins = tt.origins
			router := newCORSRouter(c)

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCredent, w.Header().Get("Access-Control-Allow-Credentials"))
			if tt.wantOrigin != "" {
				assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}

func TestCORSConfigFrom(t *testing.T) {
	cfg := CORSConfigFrom(config.HTTPConfig{
		CORSAllowOrigins: []string{"http://localhost:5173"},
		CORSAllowMethods: []string{"GET"},
		CORSAllowHeaders: []string{"Authorization"},
	})

	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowOrigins)
	assert.Equal(t, []string{RequestIDHeader}, cfg.ExposeHeaders)
	assert.True(t, cfg.AllowCredentials)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "client-req-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-req-1", w.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", MaxRequestIDLength+1))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Len(t, w.Header().Get(RequestIDHeader), 36)
	})
}

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}
