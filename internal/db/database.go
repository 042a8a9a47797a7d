package db

import (
	"fmt"

	"github.com/pasteldream/pastel-backend/config"
	appLogger "github.com/pasteldream/pastel-backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the backend database described by cfg.URL.
func Connect(cfg *config.BackendConfig) (*gorm.DB, error) {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"max_idle_conns": cfg.MaxIdleConns,
		"max_open_conns": cfg.MaxOpenConns,
	})

	return Open(postgres.Open(cfg.URL), cfg.MaxIdleConns, cfg.MaxOpenConns)
}

// Open wraps gorm.Open with the pool settings shared by every dialect.
func Open(dialector gorm.Dialector, maxIdle, maxOpen int) (*gorm.DB, error) {
	database, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // pkg/logger is used instead
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"dialect": dialector.Name(),
	})
	return database, nil
}

// Close closes the underlying connection pool.
func Close(database *gorm.DB) error {
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
