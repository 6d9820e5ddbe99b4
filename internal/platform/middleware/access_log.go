package middleware

import (
	"fmt"
	"time"

	"cipher-canvas/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware 以 GCP httpRequest 格式記錄每個請求
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := &logger.HTTPRequest{
			RequestMethod: c.Request.Method,
			RequestURL:    c.Request.URL.Path,
			RequestSize:   c.Request.ContentLength,
			Status:        status,
			ResponseSize:  int64(c.Writer.Size()),
			UserAgent:     c.Request.UserAgent(),
			RemoteIP:      GetClientIP(c),
			Latency:       fmt.Sprintf("%.6fs", time.Since(start).Seconds()),
			Protocol:      c.Request.Proto,
		}

		opts := []logger.LogOption{
			logger.WithRequestID(GetRequestID(c)),
			logger.WithHTTPRequest(entry),
		}
		if userID := GetUserID(c); userID != "" {
			opts = append(opts, logger.WithUserID(userID))
		}

		ctx := c.Request.Context()
		msg := fmt.Sprintf("%s %s %d", c.Request.Method, c.Request.URL.Path, status)
		switch {
		case status >= 500:
			logger.Error(ctx, msg, opts...)
		case status >= 400:
			logger.Warning(ctx, msg, opts...)
		default:
			logger.Info(ctx, msg, opts...)
		}
	}
}
