package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"job not found", job.ErrJobNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped batch not found", fmt.Errorf("load: %w", job.ErrBatchNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"product not found", catalog.ErrProductNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"duplicate job", job.ErrDuplicateJob, http.StatusConflict, dto.ErrCodeDuplicateJob},
		{"already finished", job.ErrJobAlreadyFinished, http.StatusUnprocessableEntity, dto.ErrCodeJobFinished},
		{"not retryable", job.ErrJobNotRetryable, http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"empty batch", job.ErrEmptyBatch, http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"workflows disabled", workflows.ErrWorkflowsDisabled, http.StatusServiceUnavailable, dto.ErrCodeUnavailable},
		{"unknown marketplace", marketplace.ErrUnknownMarketplace, http.StatusBadRequest, dto.ErrCodeUnknownMarketplace},
		{"unsupported action", fmt.Errorf("batch: %w", marketplace.ErrUnsupportedAction), http.StatusBadRequest, dto.ErrCodeUnsupportedAction},
		{"category not mapped", vinted.ErrCategoryNotMapped, http.StatusNotFound, dto.ErrCodeCategoryNotMapped},
		{"plugin offline", plugin.ErrPluginNotConnected, http.StatusConflict, dto.ErrCodePluginNotConnected},
		{"product invalid", &mapping.ValidationError{
			Marketplace: marketplace.Vinted,
			Violations:  []mapping.FieldViolation{{Field: "brand", Message: "is required"}},
		}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, w))
		})
	}
}

func TestBaseHandler_HandleError_ValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	(&BaseHandler{}).HandleError(c, fmt.Errorf("publish: %w", &mapping.ValidationError{
		Marketplace: marketplace.Ebay,
		Violations: []mapping.FieldViolation{
			{Field: "price", Message: "must be greater than zero"},
			{Field: "quantity", Message: "must be at least 1"},
		},
	}))

	resp := decode(t, w, nil)
	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "price", resp.Error.Details[0].Field)
	assert.Equal(t, "quantity", resp.Error.Details[1].Field)
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	(&BaseHandler{}).HandleError(c, nil)
	assert.Empty(t, w.Body.String())
}
