package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cipher-canvas/internal/grpcclient"
	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/driver"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/platform/server"
	"cipher-canvas/internal/storage/database/mongodb"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/encoding/protojson"
)

// Flag variables.
var (
	configPath   string
	probeService string
	probeTimeout time.Duration
	probeJSON    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "cipher-canvas",
	Short:         "cipher-canvas API 伺服器",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(".env")
		if configPath != "" {
			if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
				return err
			}
		}
		return config.Load()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "啟動 HTTP API 與 gRPC 健康檢查服務",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "建立 MongoDB 索引並輸出統計",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if cfg.Database.Driver != config.DriverMongo {
			return fmt.Errorf("indexes 只適用於 mongo 驅動，目前為 %q", cfg.Database.Driver)
		}

		if err := driver.InitMongo(cfg.Database.Mongo); err != nil {
			return err
		}
		defer func() {
			_ = driver.CloseMongo()
		}()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		db := driver.GetMongoDatabase()
		if err := mongodb.CreateIndexes(ctx, db); err != nil {
			return err
		}
		stats, err := mongodb.GetIndexStats(ctx, db)
		if err != nil {
			return err
		}
		for collection, indexes := range stats {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", collection, indexes)
		}
		return nil
	},
}

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "查詢 gRPC 健康檢查服務，非 SERVING 時以錯誤結束",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		status, err := grpcclient.Probe(ctx, config.GetGRPCAddr(), cfg.Security.TLS, probeService)
		if err != nil {
			return err
		}
		if probeJSON {
			fmt.Fprintln(cmd.OutOrStdout(), protojson.Format(&healthpb.HealthCheckResponse{Status: status}))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), status)
		}
		if status != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("service %q is %s", probeService, status)
		}
		return nil
	},
}

// serve 分離主要邏輯，確保 defer 在結束前執行.
func serve(parent context.Context) error {
	if err := logger.InitLogger(); err != nil {
		return err
	}
	defer logger.CloseLogger()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, config.Get())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"配置檔路徑，未指定時依 APP_ENV 讀取 ./configs/<env>.yaml")
	healthcheckCmd.Flags().StringVar(&probeService, "service", "",
		"要查詢的服務名稱，空字串代表整體狀態")
	healthcheckCmd.Flags().DurationVar(&probeTimeout, "timeout", 5*time.Second,
		"查詢逾時")
	healthcheckCmd.Flags().BoolVar(&probeJSON, "json", false, "以 JSON 輸出結果")

	rootCmd.AddCommand(serveCmd, indexesCmd, healthcheckCmd)
}
