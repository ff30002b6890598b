package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "stoflow",
		AccessTokenExpiration: accessTTL,
		PluginTokenExpiration: time.Hour,
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	userID := uuid.New()
	access, err := svc.GenerateAccessToken(userID, "seller@example.com")
	require.NoError(t, err)
	plugin, err := svc.GeneratePluginToken(userID)
	require.NoError(t, err)
	expired, err := newTestJWTService(-time.Minute).GenerateAccessToken(userID, "")
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"valid token", "/api/v1/jobs", "Bearer " + access.Token, http.StatusOK, ""},
		{"missing header", "/api/v1/jobs", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"wrong scheme", "/api/v1/jobs", "Basic abc", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"empty token", "/api/v1/jobs", "Bearer ", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"garbage token", "/api/v1/jobs", "Bearer not-a-jwt", http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"expired token", "/api/v1/jobs", "Bearer " + expired.Token, http.StatusUnauthorized, dto.ErrCodeTokenExpired},
		{"plugin token on REST", "/api/v1/jobs", "Bearer " + plugin.Token, http.StatusUnauthorized, dto.ErrCodeTokenInvalid},
		{"skipped path", "/health", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(svc))
			handler := func(c *gin.Context) {
				c.String(http.StatusOK, GetJWTUserID(c))
			}
			router.GET("/api/v1/jobs", handler)
			router.GET("/health", handler)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestJWTAuthMiddleware_ContextValues(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	userID := uuid.New()
	access, err := svc.GenerateAccessToken(userID, "")
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuthMiddleware(svc))
	router.GET("/api/v1/me", func(c *gin.Context) {
		claims := GetJWTClaims(c)
		require.NotNil(t, claims)
		assert.Equal(t, userID.String(), claims.UserID)
		assert.Equal(t, userID, GetUserUUID(c))
		assert.Equal(t, userID.String(), c.GetString("user_id"))
		assert.Equal(t, userID.String(), logger.GetUserID(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	req.Header.Set(AuthHeaderKey, "Bearer "+access.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestQueryTokenAuth(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	userID := uuid.New()
	plugin, err := svc.GeneratePluginToken(userID)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/ws", QueryTokenAuth(svc, nil), func(c *gin.Context) {
		c.String(http.StatusOK, GetJWTUserID(c))
	})

	t.Run("token in query", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+plugin.Token, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, userID.String(), w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token=nope", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrCodeTokenInvalid, decodeError(t, w).Code)
	})
}

func TestGetUserUUID_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uuid.Nil, GetUserUUID(c))
	assert.Nil(t, GetJWTClaims(c))
}
