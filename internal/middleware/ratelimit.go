package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/service"
)

// RateLimitMiddleware enforces the per-actor token bucket. Must run after
// AuthMiddleware so the actor is already in the context.
func RateLimitMiddleware(am *service.ActorManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		limiter := am.GetLimiter(actor.ID)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
