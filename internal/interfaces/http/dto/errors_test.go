package dto

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeUnknownMarketplace, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeCategoryNotMapped, http.StatusNotFound},
		{ErrCodeDuplicateJob, http.StatusConflict},
		{ErrCodePluginNotConnected, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeJobFinished, http.StatusUnprocessableEntity},
		{ErrCodeTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"ERR_SOMETHING_NEW", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeInvalidState, NormalizeErrorCode("INVALID_STATE"))
	assert.Equal(t, ErrCodeValidation, NormalizeErrorCode("VALIDATION_ERROR"))
	assert.Equal(t, ErrCodeDuplicateJob, NormalizeErrorCode(ErrCodeDuplicateJob))
	assert.Equal(t, "CUSTOM", NormalizeErrorCode("CUSTOM"))
}

func TestNewErrorResponse(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponseWithRequestID("NOT_FOUND", "job not found", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "job not found", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.False(t, resp.Error.Timestamp.Before(before))
	assert.Nil(t, resp.Data)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{{Field: "title", Message: "This field is required"}}
	resp := NewValidationErrorResponse("Request validation failed", "req-2", details)

	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, details, resp.Error.Details)
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		pageSize  int
		wantPages int
		wantSize  int
	}{
		{"exact pages", 40, 20, 2, 20},
		{"partial page", 41, 20, 3, 20},
		{"empty", 0, 10, 0, 10},
		{"default size", 21, 0, 2, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewSuccessResponseWithMeta([]string{}, tt.total, 1, tt.pageSize)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.wantPages, resp.Meta.TotalPages)
			assert.Equal(t, tt.wantSize, resp.Meta.PageSize)
		})
	}
}

func TestDefaultListRequest(t *testing.T) {
	req := DefaultListRequest()
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 20, req.PageSize)
}
