package middleware

import (
	"net/http"
	"sync"
	"time"

	"cipher-canvas/internal/constants"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter 以令牌桶為每個客戶端限流
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	stopCh   chan struct{}
	stopOnce sync.Once
}

// visitor 訪問者信息
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 創建新的速率限制器
// perMinute: 每分鐘允許的請求數
// burst: 瞬間可消耗的請求數
// cleanupInterval: 清理閒置訪問者的間隔
func NewRateLimiter(perMinute, burst int, cleanupInterval time.Duration) *RateLimiter {
	if perMinute <= 0 {
		perMinute = constants.DefaultRateLimitPerMinute
	}
	if burst <= 0 {
		burst = perMinute
	}
	if cleanupInterval <= 0 {
		cleanupInterval = constants.RateLimitCleanupIntervalMin * time.Minute
	}

	rl := &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		visitors: make(map[string]*visitor),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupVisitors(cleanupInterval)

	return rl
}

// Middleware 返回 Gin 中間件，已登入用戶以用戶 ID 計算，否則以 IP 計算
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + GetClientIP(c)
		if userID := GetUserID(c); userID != "" {
			key = "user:" + userID
		}

		if !rl.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":    false,
				"message":    "Too many requests, please try again later",
				"request_id": GetRequestID(c),
			})
			return
		}

		c.Next()
	}
}

// Allow 檢查是否允許請求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	v, exists := rl.visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	return v.limiter.Allow()
}

// Stop 停止清理 goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// cleanupVisitors 定期清理閒置的訪問者記錄
func (rl *RateLimiter) cleanupVisitors(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-constants.RateLimitIdleMinutes * time.Minute)
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if v.lastSeen.Before(cutoff) {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}
