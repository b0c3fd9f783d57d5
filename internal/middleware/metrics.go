package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classpulse-api/internal/service"
)

// Metrics records request counts and latencies by route template. Scrapes of
// /metrics itself are not counted.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
