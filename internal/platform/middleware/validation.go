package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"cipher-canvas/internal/constants"
	"cipher-canvas/internal/platform/config"

	"github.com/gin-gonic/gin"
)

// ValidateTextField 驗證文字欄位的長度與字元
func ValidateTextField(field, value string) error {
	maxLength := constants.DefaultMaxFieldLength
	if cfg := config.Get(); cfg != nil && cfg.Limits.Message.MaxFieldLength > 0 {
		maxLength = cfg.Limits.Message.MaxFieldLength
	}

	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d", field, maxLength)
	}

	// 防止 NULL 字符注入
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", field)
	}

	return nil
}

// RequestSizeLimiter 限制請求體大小的中間件
func RequestSizeLimiter(maxSize int64) gin.HandlerFunc {
	if maxSize <= 0 {
		maxSize = constants.DefaultMaxRequestBodySize
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success":    false,
				"message":    fmt.Sprintf("Request body too large, maximum is %d bytes", maxSize),
				"request_id": GetRequestID(c),
			})
			return
		}

		// Content-Length 未知時也不能讀超過上限
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
