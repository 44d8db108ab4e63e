// internal/middleware/rate_limit.go
package middleware

import (
	"fmt"
	"net/http"
	"time"

	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimiter is a fixed-window per-client limiter backed by Redis.
type RateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	logger *zap.Logger
}

func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{rdb: rdb, limit: limit, window: window, logger: logger}
}

// Middleware counts requests per tenant when authenticated, per client
// IP otherwise. Redis unavailability fails open.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if tenantID := MustGetTenantID(c); tenantID != 0 {
			key = fmt.Sprintf("ratelimit:tenant:%d", tenantID)
		} else {
			key = "ratelimit:ip:" + c.ClientIP()
		}

		count, err := l.rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if count == 1 {
			l.rdb.Expire(c.Request.Context(), key, l.window)
		}

		if count > int64(l.limit) {
			response.Error(c, http.StatusTooManyRequests, "too many requests", xerrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}
