package middleware

import (
	"strconv"
	"time"

	"cipher-canvas/internal/platform/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware 記錄每個路由的請求數與延遲
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 未匹配路由統一標記，避免標籤基數爆炸
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
