package grpc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"cipher-canvas/internal/constants"
	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName 訊息服務在健康檢查中的名稱，空字串代表整體狀態
const ServiceName = "cipher_canvas.Messages"

const (
	defaultHealthInterval = constants.DefaultHealthIntervalSeconds * time.Second
	pingTimeout           = constants.HealthPingTimeoutSeconds * time.Second
)

// Pinger 可被健康檢查的依賴
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server gRPC 健康檢查服務器
//
// 定期 ping 記錄儲存，可連線時回報 SERVING，否則 NOT_SERVING。
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	store      Pinger
	interval   time.Duration

	mu      sync.Mutex
	serving bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer 創建新的 gRPC 服務器並開始定期檢查，呼叫端必須呼叫 Stop
func NewServer(store Pinger, tlsConfig config.TLSConfig, interval time.Duration) (*Server, error) {
	ctx := context.Background()
	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor)}

	if tlsConfig.Enabled {
		tlsCreds, err := loadTLSCredentials(tlsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(tlsCreds))
		logger.Info(ctx, "gRPC TLS 已啟用")
	} else {
		logger.Info(ctx, "gRPC 以非加密模式運行（開發環境）")
	}

	if interval <= 0 {
		interval = defaultHealthInterval
	}

	s := &Server{
		grpcServer: grpc.NewServer(opts...),
		health:     health.NewServer(),
		store:      store,
		interval:   interval,
		stop:       make(chan struct{}),
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.setServing(false)
	s.check()

	s.wg.Add(1)
	go s.watch()

	return s, nil
}

// Start 在指定地址啟動 gRPC 服務器，阻塞直到停止
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Infof(context.Background(), "gRPC 服務器啟動在 %s", addr)
	return s.Serve(lis)
}

// Serve 在既有的 listener 上提供服務
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// Stop 將狀態改為 NOT_SERVING 並優雅停止
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	})
}

func (s *Server) watch() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.check()
		}
	}
}

// check ping 一次記錄儲存並更新狀態
func (s *Server) check() {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	err := s.store.Ping(ctx)
	if err != nil {
		logger.Warning(ctx, "gRPC 健康檢查 - 記錄儲存無回應", logger.WithError(err))
	}
	s.setServing(err == nil)
}

func (s *Server) setServing(serving bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	if serving != s.serving {
		logger.Infof(context.Background(), "gRPC 健康狀態變更為 %s", status)
	}
	s.serving = serving
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		logger.Warning(ctx, "gRPC 請求失敗",
			logger.WithAction(info.FullMethod),
			logger.WithError(err))
		return resp, err
	}
	logger.Debug(ctx, "gRPC 請求完成",
		logger.WithAction(info.FullMethod),
		logger.WithDetails(map[string]interface{}{"latency": time.Since(start).String()}))
	return resp, nil
}

// loadTLSCredentials 載入 TLS 憑證
func loadTLSCredentials(tlsConfig config.TLSConfig) (credentials.TransportCredentials, error) {
	serverCert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load key pair: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{serverCert},
		MinVersion:   tls.VersionTLS12,
	}

	// 有 CA 時要求客戶端憑證
	if tlsConfig.CAFile != "" {
		certPool := x509.NewCertPool()
		ca, err := os.ReadFile(tlsConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		if ok := certPool.AppendCertsFromPEM(ca); !ok {
			return nil, fmt.Errorf("failed to append CA certs")
		}
		cfg.ClientCAs = certPool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return credentials.NewTLS(cfg), nil
}
