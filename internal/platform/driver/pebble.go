package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"cipher-canvas/internal/platform/config"
	"cipher-canvas/internal/platform/logger"

	"github.com/cockroachdb/pebble"
)

var pebbleDB *pebble.DB

// InitPebble 開啟內嵌 Pebble 資料庫.
func InitPebble(cfg config.PebbleConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create pebble dir: %w", err)
	}

	db, err := pebble.Open(cfg.Path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("failed to open pebble: %w", err)
	}

	pebbleDB = db
	logger.LogInfof("Pebble opened at %s", cfg.Path)
	return nil
}

// GetPebbleDB 獲取 Pebble 實例.
func GetPebbleDB() *pebble.DB {
	return pebbleDB
}

// ClosePebble 關閉 Pebble.
func ClosePebble() error {
	if pebbleDB == nil {
		return nil
	}
	err := pebbleDB.Close()
	pebbleDB = nil
	return err
}
