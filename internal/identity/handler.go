package identity

import (
	"net/http"

	"cipher-canvas/internal/httputil"
	"cipher-canvas/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// Handler 身分相關 HTTP 處理器.
type Handler struct {
	service *Service
}

// NewHandler 建立處理器.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 掛載 /auth 路由，requireAuth 用於需要登入的端點.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	auth := rg.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/me", requireAuth, h.Me)
}

// Register POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		httputil.Fail(c, err, "Failed to register user")
		return
	}

	httputil.Respond(c, http.StatusCreated, "User registered successfully", result)
}

// Login POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.InvalidRequestBody)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		httputil.Fail(c, err, "Failed to login")
		return
	}

	httputil.Respond(c, http.StatusOK, "Login successful", result)
}

// Me GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.Me(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		httputil.Fail(c, err, "Failed to fetch user")
		return
	}

	httputil.Respond(c, http.StatusOK, "", gin.H{"user": user})
}
