package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/ratelimit"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// UserRateLimit throttles authenticated requests per user. It must run after
// the JWT middleware; anonymous requests are not limited.
func UserRateLimit(limiter *ratelimit.UserLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserUUID(c)
		if userID == uuid.Nil {
			c.Next()
			return
		}
		if !limiter.Allow(userID) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited,
				"Too many requests. Please try again later.",
				c.GetString(RequestIDKey),
			))
			return
		}
		c.Next()
	}
}
