package middleware

import (
	"time"

	"github.com/covidtrack/registry/internal/infrastructure/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records every request on m by matched route. Unmatched paths are
// folded into a single "unmatched" route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
