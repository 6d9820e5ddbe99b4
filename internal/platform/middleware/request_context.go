package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

const unknownValue = "unknown"

// RequestMetadata 單次請求的來源資訊，供審計日誌使用.
// UserID 在通過認證後才會填入。
type RequestMetadata struct {
	RequestID string
	IPAddress string
	UserAgent string
	Method    string
	Route     string
	UserID    string
}

type metadataKey struct{}

// RequestMetadataMiddleware 收集請求元數據並掛到 request context.
// 需放在 RequestIDMiddleware 之後。
func RequestMetadataMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := newRequestMetadata(c)
		c.Set(metadataContextKey, meta)
		c.Request = c.Request.WithContext(WithRequestMetadata(c.Request.Context(), meta))
		c.Next()
	}
}

const metadataContextKey = "request_metadata"

func newRequestMetadata(c *gin.Context) *RequestMetadata {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return &RequestMetadata{
		RequestID: GetRequestID(c),
		IPAddress: GetClientIP(c),
		UserAgent: c.Request.UserAgent(),
		Method:    c.Request.Method,
		Route:     route,
	}
}

// WithRequestMetadata 把元數據放進 context，非 HTTP 呼叫端也可用.
func WithRequestMetadata(ctx context.Context, meta *RequestMetadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, meta)
}

// GetClientIP 取客戶端 IP，依序看 X-Forwarded-For 第一段、X-Real-IP、連線位址.
func GetClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}

// GetRequestMetadata 從 context 取元數據，沒有時 IP 與 UserAgent 標為 unknown.
func GetRequestMetadata(ctx context.Context) *RequestMetadata {
	if meta, ok := ctx.Value(metadataKey{}).(*RequestMetadata); ok && meta != nil {
		return meta
	}
	return &RequestMetadata{IPAddress: unknownValue, UserAgent: unknownValue}
}

// requestMetadataFromGin 取中間件建立的元數據，未掛載時現場組一份.
func requestMetadataFromGin(c *gin.Context) *RequestMetadata {
	if v, ok := c.Get(metadataContextKey); ok {
		if meta, ok := v.(*RequestMetadata); ok {
			return meta
		}
	}
	return newRequestMetadata(c)
}
