package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alpha10/acs-api/internal/service"
)

// Metrics records per-request duration and counts. The metrics endpoint
// itself is excluded to keep scrape traffic out of the series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, status, time.Since(start))

		switch status {
		case http.StatusUnauthorized:
			metricsSvc.RecordGateDenial("unauthenticated")
		case http.StatusForbidden:
			metricsSvc.RecordGateDenial("forbidden")
		}
	}
}
