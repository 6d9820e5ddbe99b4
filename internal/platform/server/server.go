package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cgrpc "cipher-canvas/internal/grpc"
	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/security/audit"
	"cipher-canvas/internal/storage"
	"cipher-canvas/internal/storage/cache"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 30 * time.Second

// Run 連接儲存、啟動 HTTP 與 gRPC 健康服務，直到 ctx 取消後優雅關閉.
func Run(ctx context.Context, cfg *config.Config) error {
	logger.LogInfof("正在啟動 cipher-canvas API 伺服器，環境: %s", config.GetEnv())

	if err := storage.Connect(cfg); err != nil {
		return fmt.Errorf("資料庫連接失敗: %w", err)
	}
	defer func() {
		if err := storage.Close(cfg); err != nil {
			logger.LogErrorf("關閉資料庫連接失敗: %v", err)
		}
	}()

	repos, err := storage.NewRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	logger.LogInfof("儲存庫集合初始化完成，驅動: %s", cfg.Database.Driver)

	deps := &Dependencies{
		Repos: repos,
		Audit: audit.NewAuditService(cfg.Security.Audit.Enabled),
	}
	if cfg.Cache.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.Redis)
		if err != nil {
			return fmt.Errorf("Redis 連接失敗: %w", err)
		}
		defer redisCache.Close()
		deps.Cache = redisCache
		logger.LogInfof("畫廊快取已啟用: %s", cfg.Cache.Redis.Addr)
	}

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router, stopLimiters := Router(cfg, deps)
	defer stopLimiters()

	srv := &http.Server{
		Addr:         config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.Timeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.Timeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)

	var grpcServer *cgrpc.Server
	if cfg.GRPC.Enabled {
		grpcServer, err = cgrpc.NewServer(repos.Message, cfg.Security.TLS, time.Duration(cfg.GRPC.HealthInterval)*time.Second)
		if err != nil {
			return fmt.Errorf("gRPC 服務器創建失敗: %w", err)
		}
		go func() {
			if err := grpcServer.Start(config.GetGRPCAddr()); err != nil {
				errCh <- fmt.Errorf("gRPC 服務器啟動失敗: %w", err)
			}
		}()
	}

	go func() {
		logger.LogInfof("伺服器正在監聽: %s", srv.Addr)
		if err := listen(srv, cfg.Server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("伺服器啟動失敗: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.LogInfof("收到關閉信號，正在優雅關閉伺服器...")
	case runErr = <-errCh:
		logger.LogErrorf("%v", runErr)
	}

	if grpcServer != nil {
		grpcServer.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogErrorf("伺服器關閉失敗: %v", err)
		if runErr == nil {
			runErr = err
		}
	}

	logger.LogInfof("伺服器已關閉")
	return runErr
}

// listen 依配置以 HTTP 或 HTTPS 提供服務
func listen(srv *http.Server, cfg config.ServerConfig) error {
	if !cfg.UseHTTPS {
		return srv.ListenAndServe()
	}
	tlsConfig, err := LoadServerTLS(cfg.CertPath, cfg.KeyPath)
	if err != nil {
		return err
	}
	srv.TLSConfig = tlsConfig
	return srv.ListenAndServeTLS("", "")
}
