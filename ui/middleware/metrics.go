package middleware

import (
	"time"

	"gopower/internal/metrics"

	"github.com/gin-gonic/gin"
)

// RequestMetrics is middleware that records the request count and latency
// of every route under the given server label
func RequestMetrics(server string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(server, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
