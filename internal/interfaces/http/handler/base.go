// Package handler holds the gin handlers of the /api/v1 surface.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/middleware"
)

// errMissingUser is returned when a route is reached without JWT claims
var errMissingUser = errors.New("user ID not found in context")

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// getUserID returns the authenticated user
func getUserID(c *gin.Context) (uuid.UUID, error) {
	id := middleware.GetUserUUID(c)
	if id == uuid.Nil {
		return uuid.Nil, errMissingUser
	}
	return id, nil
}

// requireUser writes a 401 and returns false when no user is authenticated
func (h *BaseHandler) requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 response for work that continues asynchronously
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// BindError answers a failed ShouldBind* call
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// sentinelCodes maps plain sentinel errors to API codes
var sentinelCodes = []struct {
	err  error
	code string
}{
	{marketplace.ErrUnknownMarketplace, dto.ErrCodeUnknownMarketplace},
	{marketplace.ErrUnknownAction, dto.ErrCodeUnknownAction},
	{marketplace.ErrUnsupportedAction, dto.ErrCodeUnsupportedAction},
	{vinted.ErrCategoryNotMapped, dto.ErrCodeCategoryNotMapped},
	{vinted.ErrAttributeNotFound, dto.ErrCodeAttributeNotFound},
	{plugin.ErrPluginNotConnected, dto.ErrCodePluginNotConnected},
}

// HandleError converts service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var verr *mapping.ValidationError
	if errors.As(err, &verr) {
		details := make([]dto.ValidationDetail, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			details = append(details, dto.ValidationDetail{Field: v.Field, Message: v.Message})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(verr.Error(), getRequestID(c), details))
		return
	}

	switch {
	case errors.Is(err, job.ErrDuplicateJob):
		h.ErrorWithCode(c, dto.ErrCodeDuplicateJob, job.ErrDuplicateJob.Message)
		return
	case errors.Is(err, job.ErrJobAlreadyFinished):
		h.ErrorWithCode(c, dto.ErrCodeJobFinished, job.ErrJobAlreadyFinished.Message)
		return
	case errors.Is(err, workflows.ErrWorkflowsDisabled):
		h.ErrorWithCode(c, dto.ErrCodeUnavailable, workflows.ErrWorkflowsDisabled.Message)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.ErrorWithCode(c, code, domainErr.Message)
		return
	}

	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			h.ErrorWithCode(c, s.code, err.Error())
			return
		}
	}

	logger.L(c.Request.Context()).Error("Unhandled request error",
		zap.Error(err),
		zap.String("path", c.FullPath()),
	)
	h.InternalError(c, "An unexpected error occurred")
}
