package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolSig-Alphabet/internal/infrastructure/monitoring/prometheus"
)

// Metrics records per-request counters and latency histograms.  The route
// template (c.FullPath) is used as the path label so parameterised routes do
// not explode the cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		m.HTTPActiveRequests.WithLabelValues(method, path).Inc()
		start := time.Now()

		c.Next()

		m.HTTPActiveRequests.WithLabelValues(method, path).Dec()
		prometheus.RecordHTTPRequest(m, method, path,
			strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
