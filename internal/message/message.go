package message

import (
	"errors"
	"io"
	"net/http"

	"cipher-canvas/internal/httputil"
	"cipher-canvas/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// MessageHandler 訊息 HTTP 處理器.
type MessageHandler struct {
	service *Service
}

// NewMessageHandler 建立訊息處理器.
func NewMessageHandler(service *Service) *MessageHandler {
	return &MessageHandler{service: service}
}

// RegisterRoutes 掛載 /messages 路由，寫入端點需登入並套用 writeLimit.
func (h *MessageHandler) RegisterRoutes(rg *gin.RouterGroup, requireAuth, writeLimit gin.HandlerFunc) {
	messages := rg.Group("/messages")
	messages.GET("", h.ListMessages)
	messages.GET("/user/:userId", h.ListUserMessages)
	messages.GET("/:id", h.GetMessage)

	private := messages.Group("", requireAuth, writeLimit)
	private.POST("", h.CreateMessage)
	private.POST("/:id/like", h.LikeMessage)
	private.POST("/:id/unlock", h.UnlockMessage)
}

// CreateMessage POST /api/messages
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	// 空 body 視為空請求，交由欄位驗證回報缺少的欄位
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	view, err := h.service.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		httputil.Fail(c, err, "Failed to create message")
		return
	}

	httputil.Respond(c, http.StatusCreated, "Message created successfully", gin.H{"message": view})
}

// ListMessages GET /api/messages
func (h *MessageHandler) ListMessages(c *gin.Context) {
	views, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		httputil.Fail(c, err, "Failed to fetch messages")
		return
	}

	httputil.RespondWithCount(c, http.StatusOK, gin.H{"messages": views}, len(views))
}

// GetMessage GET /api/messages/:id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	view, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Fail(c, err, "Failed to fetch message")
		return
	}

	httputil.Respond(c, http.StatusOK, "", gin.H{"message": view})
}

// ListUserMessages GET /api/messages/user/:userId
func (h *MessageHandler) ListUserMessages(c *gin.Context) {
	views, err := h.service.ListBySender(c.Request.Context(), c.Param("userId"))
	if err != nil {
		httputil.Fail(c, err, "Failed to fetch user messages")
		return
	}

	httputil.RespondWithCount(c, http.StatusOK, gin.H{"messages": views}, len(views))
}

// LikeMessage POST /api/messages/:id/like
func (h *MessageHandler) LikeMessage(c *gin.Context) {
	result, err := h.service.ToggleLike(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		httputil.Fail(c, err, "Failed to like message")
		return
	}

	message := "Message liked"
	if !result.Liked {
		message = "Message unliked"
	}
	httputil.Respond(c, http.StatusOK, message, result)
}

// UnlockMessage POST /api/messages/:id/unlock
func (h *MessageHandler) UnlockMessage(c *gin.Context) {
	result, err := h.service.RecordUnlock(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		httputil.Fail(c, err, "Failed to unlock message")
		return
	}

	httputil.Respond(c, http.StatusOK, "Unlock recorded", result)
}
