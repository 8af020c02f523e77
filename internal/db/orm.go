package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"label-cabinet/backstage/internal/logging"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

var PgDB *gorm.DB

func InitPostgresORM(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	PgDB = db
	logging.Info("Connected to Postgres via GORM")
	return db, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(gormModels.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	// api_keys is read through sqlx only, so it is not a gorm model.
	if err := db.Exec(`CREATE TABLE IF NOT EXISTS api_keys (
		key TEXT PRIMARY KEY,
		label TEXT NOT NULL DEFAULT '',
		status BOOLEAN NOT NULL DEFAULT true
	)`).Error; err != nil {
		return fmt.Errorf("failed to create api_keys: %w", err)
	}
	return nil
}
