package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/pkg/metrics"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		metrics.LatencyBucket.WithLabelValues(c.FullPath()).Observe(duration)
	}
}
