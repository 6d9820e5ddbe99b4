package middleware

import (
	"context"
	"net/http"
	"strings"

	"cipher-canvas/internal/apperror"
	"cipher-canvas/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

// UserIDKey 認證成功後存放在 gin.Context 的用戶 ID
const UserIDKey = "user_id"

// Authenticator 驗證 token 並確認用戶仍有效，回傳用戶 ID
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (userID string, err error)
}

// RequireAuth 要求認證的中間件
// 缺少、格式錯誤或無效的 token 以及停用的帳號都回傳 401
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Not authorized, no token")
			return
		}

		userID, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if apperror.IsStore(err) {
				abortStoreFailure(c, err)
				return
			}
			abortUnauthorized(c, "Not authorized, token failed")
			return
		}

		c.Set(UserIDKey, userID)
		if meta := requestMetadataFromGin(c); meta != nil {
			meta.UserID = userID
		}

		c.Next()
	}
}

// GetUserID 取得已認證的用戶 ID，未認證時回傳空字串
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// bearerToken 解析 "Bearer <token>"
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success":    false,
		"message":    message,
		"request_id": GetRequestID(c),
	})
}

// abortStoreFailure 查詢用戶失敗時回 500，真實錯誤只寫日誌
func abortStoreFailure(c *gin.Context, err error) {
	message := apperror.MessageOf(err, "Failed to authenticate")
	requestID := GetRequestID(c)
	logger.Error(c.Request.Context(), message,
		logger.WithRequestID(requestID),
		logger.WithError(err))

	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success":    false,
		"message":    message,
		"error":      "Internal server error",
		"request_id": requestID,
	})
}
