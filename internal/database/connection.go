// Package database opens the PostgreSQL connection and applies schema migrations.
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"auction-marketplace/internal/config"
	"auction-marketplace/utils"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens a gorm connection with the configured pool and verifies it
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newGormLogger(cfg.LogLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	utils.Info("database connection established", map[string]any{
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return db, nil
}

// Close releases the connection pool
func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		utils.Error("failed to get underlying sql.DB", map[string]any{"error": err.Error()})
		return
	}

	if err := sqlDB.Close(); err != nil {
		utils.Error("failed to close database connection", map[string]any{"error": err.Error()})
		return
	}
	utils.Info("database connection closed", nil)
}

// newGormLogger routes gorm's SQL log through logrus at the configured level
func newGormLogger(level string) logger.Interface {
	return logger.New(log.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLogLevel(level),
		IgnoreRecordNotFoundError: true,
	})
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
