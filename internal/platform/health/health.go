package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	// 健康狀態常數.
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusWarning   = "warning"
	statusDegraded  = "degraded"
	statusDisabled  = "disabled"

	// 記憶體相關常數.
	memoryMB        = 1024 * 1024
	memoryThreshold = 1024 // 1GB

	// 超時常數.
	pingTimeout = 5 * time.Second
)

// Pinger 可被健康檢查的依賴.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler 健康檢查處理器.
type Handler struct {
	store Pinger
	cache Pinger // nil 表示未啟用快取
}

// NewHealthHandler 創建新的健康檢查處理器.
func NewHealthHandler(store, cache Pinger) *Handler {
	return &Handler{store: store, cache: cache}
}

// ComponentStatus 單一依賴的狀態.
type ComponentStatus struct {
	Status  string                 `json:"status"`
	Error   string                 `json:"error,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthCheck 健康檢查端點.
func (h *Handler) HealthCheck(c *gin.Context) {
	cfg := config.Get()
	ctx := c.Request.Context()

	database := h.check(ctx, h.store, "資料庫")
	if cfg != nil {
		database.Details = map[string]interface{}{"driver": cfg.Database.Driver}
	}
	cache := h.check(ctx, h.cache, "快取")

	appName, debug := "", false
	if cfg != nil {
		appName, debug = cfg.App.Name, cfg.App.Debug
	}
	appVersion := os.Getenv("APP_VERSION")
	if appVersion == "" {
		appVersion = "NO_VERSION_SET"
	}

	systemStatus := h.checkSystemResources()

	status := statusHealthy
	if database.Status == statusUnhealthy || cache.Status == statusUnhealthy {
		status = statusDegraded
	}

	// 依賴不健康時仍回傳 200，狀態顯示在內容中.
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"app": gin.H{
			"name":    appName,
			"version": appVersion,
			"debug":   debug,
		},
		"database": database,
		"cache":    cache,
		"system": gin.H{
			"status":  systemStatus.Status,
			"details": systemStatus.Details,
			"uptime":  time.Since(startTime).String(),
		},
	})
}

func (h *Handler) check(ctx context.Context, dep Pinger, name string) ComponentStatus {
	if dep == nil {
		return ComponentStatus{Status: statusDisabled}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := dep.Ping(ctx); err != nil {
		logger.LogErrorf("健康檢查 - %s連線失敗: %v", name, err)
		return ComponentStatus{Status: statusUnhealthy, Error: fmt.Sprintf("%s unavailable", name)}
	}
	return ComponentStatus{Status: statusHealthy}
}

// SystemStatus 系統狀態.
type SystemStatus struct {
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details"`
}

// checkSystemResources 檢查系統資源.
func (h *Handler) checkSystemResources() SystemStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	details := map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"memory": gin.H{
			"alloc":  fmt.Sprintf("%.2f MB", float64(m.Alloc)/memoryMB),
			"sys":    fmt.Sprintf("%.2f MB", float64(m.Sys)/memoryMB),
			"num_gc": m.NumGC,
		},
		"cpu": gin.H{
			"num_cpu": runtime.NumCPU(),
		},
	}

	status := statusHealthy
	if m.Sys/memoryMB > memoryThreshold {
		status = statusWarning
		details["memory_warning"] = "Memory usage is high"
	}

	return SystemStatus{
		Status:  status,
		Details: details,
	}
}

// 記錄服務啟動時間.
var startTime = time.Now()
