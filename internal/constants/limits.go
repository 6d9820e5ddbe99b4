package constants

// HTTP 請求相關常數
const (
	// 默認值（可被配置覆蓋）
	DefaultMaxRequestBodySize = 1 << 20 // 1MB
	DefaultRequestTimeout     = 30      // 秒
)

// 訊息相關常數
const (
	DefaultMaxFieldLength = 10000
	MaxSenderProjection   = 500 // 單次批量查詢發送者的上限
)

// 用戶相關常數
const (
	MinUsernameLength  = 3
	MaxUsernameLength  = 30
	MinPasswordLength  = 6
	MaxPasswordLength  = 72 // bcrypt 只處理前 72 bytes
	MaxProfileNameLen  = 50
	DefaultBcryptCost  = 10
	DefaultTokenExpiry = "24h"
)

// Rate Limiting 默認值
const (
	DefaultRateLimitPerMinute   = 100
	DefaultWriteRateLimit       = 30
	DefaultAuthRateLimit        = 10
	RateLimitCleanupIntervalMin = 5 // 分鐘
	RateLimitIdleMinutes        = 10
)

// 快取相關常數
const (
	DefaultGalleryCacheTTL = 30 // 秒
	GalleryCacheKey        = "gallery:all"
	GalleryVersionKey      = "gallery:version"
)

// gRPC 健康檢查相關常數
const (
	DefaultHealthIntervalSeconds = 15
	HealthPingTimeoutSeconds     = 5
)

// ObjectID 相關常數
const (
	ObjectIDHexLength = 24
)
