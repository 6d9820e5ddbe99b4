package storage

import (
	"context"
	"fmt"

	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/driver"
	"cipher-canvas/internal/platform/logger"
	"cipher-canvas/internal/storage/database"
	"cipher-canvas/internal/storage/database/mongodb"
	"cipher-canvas/internal/storage/database/pebbledb"
)

// Repositories 倉儲集合.
type Repositories struct {
	Message database.MessageRepository
	User    database.UserRepository
}

// NewRepositories 依配置的資料庫驅動創建倉儲集合，連線需先由 driver 建立.
func NewRepositories(ctx context.Context, cfg *config.Config) (*Repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		db := driver.GetMongoDatabase()
		if db == nil {
			return nil, fmt.Errorf("MongoDB 尚未連接")
		}

		// 索引建立失敗不中斷啟動，唯一索引可用 indexes 子命令補建
		if err := mongodb.CreateIndexes(ctx, db); err != nil {
			logger.Warning(ctx, "建立 MongoDB 索引失敗", logger.WithError(err))
		}

		return &Repositories{
			Message: mongodb.NewMessageStore(db),
			User:    mongodb.NewUserStore(db),
		}, nil

	case config.DriverPebble:
		db := driver.GetPebbleDB()
		if db == nil {
			return nil, fmt.Errorf("Pebble 尚未開啟")
		}
		return &Repositories{
			Message: pebbledb.NewMessageStore(db),
			User:    pebbledb.NewUserStore(db),
		}, nil

	default:
		return nil, fmt.Errorf("不支援的資料庫驅動: %q", cfg.Database.Driver)
	}
}

// Connect 依配置建立資料庫連線.
func Connect(cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return driver.InitMongo(cfg.Database.Mongo)
	case config.DriverPebble:
		return driver.InitPebble(cfg.Database.Pebble)
	default:
		return fmt.Errorf("不支援的資料庫驅動: %q", cfg.Database.Driver)
	}
}

// Close 關閉資料庫連線.
func Close(cfg *config.Config) error {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return driver.CloseMongo()
	case config.DriverPebble:
		return driver.ClosePebble()
	}
	return nil
}
