package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/COROTANjayson/readify/internal/metrics"
	"github.com/COROTANjayson/readify/internal/pkg/errcode"
	"github.com/COROTANjayson/readify/internal/pkg/response"
	"github.com/COROTANjayson/readify/internal/ratelimit"
)

// KeyFunc picks the identity a request is throttled under.
type KeyFunc func(c *gin.Context) string

// KeyByUser throttles authenticated requests per user id, falling back to
// the client address when no identity is attached.
func KeyByUser(c *gin.Context) string {
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return "user:" + id
		}
	}
	return "ip:" + c.ClientIP()
}

func FixedKey(key string) KeyFunc {
	return func(c *gin.Context) string {
		return key
	}
}

// RateLimit rejects requests over budget with 429 before any handler work.
// Limiter backend failures let the request through.
func RateLimit(limiter ratelimit.Limiter, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := keyFn(c)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger := logutil.GetLogger(c.Request.Context())
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			logger.Warn("rate limit hit", zap.String("key", key), zap.String("path", path))
			metrics.ObserveRateLimited(path)
			response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
