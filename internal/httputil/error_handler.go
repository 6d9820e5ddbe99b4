package httputil

import (
	"errors"
	"net/http"
	"strings"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// Fail 依錯誤分類回傳對應狀態碼，fallback 為沒有可顯示訊息時的預設訊息
//
// Validation/Conflict → 400, Authentication → 401, NotFound → 404, 其餘 → 500。
func Fail(c *gin.Context, err error, fallback string) {
	message := apperror.MessageOf(err, fallback)

	switch apperror.KindOf(err) {
	case apperror.KindValidation, apperror.KindConflict:
		abort(c, http.StatusBadRequest, message, "")
	case apperror.KindAuthentication:
		abort(c, http.StatusUnauthorized, message, "")
	case apperror.KindNotFound:
		abort(c, http.StatusNotFound, message, "")
	default:
		SafeError(c, http.StatusInternalServerError, err, message)
	}
}

// SafeError 安全的錯誤響應（不洩露內部信息）
func SafeError(c *gin.Context, statusCode int, err error, userMessage string) {
	requestID := middleware.GetRequestID(c)

	// 記錄真實錯誤到日誌
	logger.Error(c.Request.Context(), userMessage,
		logger.WithRequestID(requestID),
		logger.WithDetails(map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": statusCode,
		}),
		logger.WithError(err))

	abort(c, statusCode, userMessage, safeDetail(err))
}

// BadRequest 錯誤的請求
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, message, "")
}

// Unauthorized 未授權
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = NotAuthorized
	}
	abort(c, http.StatusUnauthorized, message, "")
}

// NotFoundError 資源不存在
func NotFoundError(c *gin.Context, message string) {
	abort(c, http.StatusNotFound, message, "")
}

func abort(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, &Envelope{
		Success:   false,
		Message:   message,
		Error:     detail,
		RequestID: middleware.GetRequestID(c),
	})
}

// safeDetail 取出最內層原因，含敏感關鍵字時以通用訊息取代
func safeDetail(err error) string {
	if err == nil {
		return InternalServerError
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Err != nil {
		err = appErr.Err
	}
	if !shouldShowError(err) {
		return InternalServerError
	}
	return err.Error()
}

// shouldShowError 判斷是否可以向用戶顯示錯誤詳情
func shouldShowError(err error) bool {
	if err == nil {
		return false
	}

	// 不應顯示的錯誤關鍵字（可能洩露敏感信息）
	dangerousKeywords := []string{
		"mongo",
		"pebble",
		"redis",
		"database",
		"connection",
		"dial",
		"password",
		"token",
		"secret",
		"credential",
		"grpc",
		"internal",
		"stack",
		"panic",
		"decode",
		"encode",
	}

	lowerMsg := strings.ToLower(err.Error())
	for _, keyword := range dangerousKeywords {
		if strings.Contains(lowerMsg, keyword) {
			return false
		}
	}

	return true
}
