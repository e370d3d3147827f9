package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"emulator-service/internal/metrics"
)

// Metrics records request counts and latencies. The route template
// (c.FullPath) keeps the label cardinality bounded.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
