package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"chat-realtime/internal/models"
	"chat-realtime/pkg/response"

	"github.com/gin-gonic/gin"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RateLimitMiddleware struct {
	limiter Limiter
	logger  *slog.Logger
}

func NewRateLimitMiddleware(limiter Limiter, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		logger:  logger.With(slog.String("component", "rate_limit")),
	}
}

// RateLimitIP limits requests per client IP and path. A limiter failure
// lets the request through.
func (rm *RateLimitMiddleware) RateLimitIP(requests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit_ip:%s:%s", clientIP, c.FullPath())

		allowed, err := rm.limiter.Allow(c.Request.Context(), key, requests, window)
		if err != nil {
			rm.logger.Error("Rate limit check failed", "clientIP", clientIP, "error", err)
			c.Next()
			return
		}

		if !allowed {
			rm.logger.Warn("Rate limit exceeded", "clientIP", clientIP, "path", c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    response.ErrCodeRateLimited,
				Message: response.Msg(response.ErrCodeRateLimited),
				Details: fmt.Sprintf("limit: %d per %v", requests, window),
			})
			return
		}

		c.Next()
	}
}
