package server

import (
	"time"

	"cipher-canvas/internal/identity"
	"cipher-canvas/internal/message"
	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/health"
	"cipher-canvas/internal/platform/middleware"
	"cipher-canvas/internal/security/audit"
	"cipher-canvas/internal/storage"
	"cipher-canvas/internal/storage/cache"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies 路由所需的依賴
type Dependencies struct {
	Repos *storage.Repositories
	Cache cache.GalleryCache // nil 表示未啟用快取
	Audit *audit.AuditService
}

// Router 設定路由，回傳的 stop 用於停止限流器的背景清理
func Router(cfg *config.Config, deps *Dependencies) (*gin.Engine, func()) {
	r := gin.New()
	r.Use(gin.Recovery())

	// 請求 ID 最優先，後續日誌與錯誤回應都會帶上
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Security.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestMetadataMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AccessLogMiddleware())
	r.Use(middleware.RequestSizeLimiter(cfg.Limits.Request.MaxBodySize))
	r.Use(middleware.RequestTimeout(time.Duration(cfg.Server.Timeout) * time.Second))

	limits := newRateLimits(cfg.Limits.RateLimiting)

	// 健康檢查與指標不限流
	var cachePinger health.Pinger
	if deps.Cache != nil {
		cachePinger = deps.Cache
	}
	r.GET("/health", health.NewHealthHandler(deps.Repos.Message, cachePinger).HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	tokens := identity.NewJWTManager(cfg.Security.Authentication.JWTSecret, cfg.Security.Authentication.TokenDuration())
	identityService := identity.NewService(deps.Repos.User, tokens, cfg.Security.Authentication.BcryptCost, deps.Audit)
	messageService := message.NewService(deps.Repos.Message, deps.Repos.User, deps.Cache, deps.Audit)
	requireAuth := middleware.RequireAuth(identityService)

	api := r.Group("/api", limits.handler(limits.def))
	identity.NewHandler(identityService).RegisterRoutes(api.Group("", limits.handler(limits.auth)), requireAuth)
	message.NewMessageHandler(messageService).RegisterRoutes(api, requireAuth, limits.handler(limits.write))

	return r, limits.stop
}

// rateLimits 一般、寫入與認證三組限流器，未啟用時全部為 nil
type rateLimits struct {
	def   *middleware.RateLimiter
	write *middleware.RateLimiter
	auth  *middleware.RateLimiter
}

func newRateLimits(cfg config.RateLimitingConfig) *rateLimits {
	if !cfg.Enabled {
		return &rateLimits{}
	}
	cleanup := time.Duration(cfg.CleanupInterval) * time.Minute
	return &rateLimits{
		def:   middleware.NewRateLimiter(cfg.DefaultPerMinute, cfg.Burst, cleanup),
		write: middleware.NewRateLimiter(cfg.WritesPerMinute, cfg.Burst, cleanup),
		auth:  middleware.NewRateLimiter(cfg.AuthPerMinute, cfg.Burst, cleanup),
	}
}

func (l *rateLimits) handler(rl *middleware.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}

func (l *rateLimits) stop() {
	for _, rl := range []*middleware.RateLimiter{l.def, l.write, l.auth} {
		if rl != nil {
			rl.Stop()
		}
	}
}
