package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/outbound-messaging-backend/internal/observability"
)

// Metrics records API request counts and latency. Probe routes and requests
// that matched no route are left out so scrapers and scanners don't skew
// the outbound series.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || isProbeRoute(route) {
			c.Next()
			return
		}

		start := time.Now()
		m.ApiInflightInc()
		c.Next()
		m.ApiInflightDec()

		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func isProbeRoute(route string) bool {
	return route == "/healthcheck" || route == "/metrics"
}
