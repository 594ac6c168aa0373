package services

import (
	"assetmap/config"
	"assetmap/models"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// InitDatabase - 설정된 드라이버(sqlite/mysql)로 연결 후 카탈로그 테이블 마이그레이션
func InitDatabase(cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("알 수 없는 DB 드라이버: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	// AutoMigrate - 테이블 자동 생성
	if err := db.AutoMigrate(&models.CatalogAsset{}); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	switch cfg.Driver {
	case "mysql":
		logger.Info("MySQL 연결 및 마이그레이션 완료", "host", cfg.Host, "port", cfg.Port, "database", cfg.Name, "user", cfg.User)
	default:
		logger.Info("SQLite 연결 및 마이그레이션 완료", "path", cfg.Path)
	}
	return db, nil
}
