package httputil

import (
	"cipher-canvas/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// Envelope 所有 API 回應的統一格式.
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Count     *int        `json:"count,omitempty"`
	Error     string      `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Respond 回傳成功回應.
func Respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, &Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: middleware.GetRequestID(c),
	})
}

// RespondWithCount 回傳帶計數的列表回應，count 為 0 時也會輸出.
func RespondWithCount(c *gin.Context, status int, data interface{}, count int) {
	c.JSON(status, &Envelope{
		Success:   true,
		Data:      data,
		Count:     &count,
		RequestID: middleware.GetRequestID(c),
	})
}
