package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"cipher-canvas/internal/constants"
	"cipher-canvas/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// RedisCache 以 Redis 實作的畫廊快取.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ GalleryCache = (*RedisCache)(nil)

// NewRedisCache 建立 Redis 連線並確認可用.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig) (*RedisCache, error) {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLSEnabled {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = constants.DefaultGalleryCacheTTL * time.Second
	}
	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient 包裝既有 client，不做連線檢查.
func NewRedisCacheWithClient(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetGallery(ctx context.Context) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, constants.GalleryCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) GalleryVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, constants.GalleryVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}

// SetGallery 以 WATCH 版本鍵做 compare-and-set，版本已變或交易被中斷時不寫入.
func (c *RedisCache) SetGallery(ctx context.Context, version int64, data []byte) (bool, error) {
	stored := false
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, constants.GalleryVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, constants.GalleryCacheKey, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, constants.GalleryVersionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	return stored, err
}

// InvalidateGallery 遞增版本並刪除內容，進行中的填入因此失效.
func (c *RedisCache) InvalidateGallery(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, constants.GalleryVersionKey)
		pipe.Del(ctx, constants.GalleryCacheKey)
		return nil
	})
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
