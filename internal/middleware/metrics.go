package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"hospital-journey-server/internal/observability"
)

// Metrics counts requests by method, route template and status.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
