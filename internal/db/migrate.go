package db

import (
	"fmt"

	"github.com/zulandar/gramportal/internal/config"
	"github.com/zulandar/gramportal/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every table the portal persists.
func AllModels() []interface{} {
	return []interface{}{
		&models.Collection{},
		&models.SessionEntry{},
		&models.Draft{},
		&models.QueuedSubmission{},
		&models.AssetEntry{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Open connects to the configured store and migrates it.
func Open(sc config.StoreConfig) (*gorm.DB, error) {
	gormDB, err := Connect(sc)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}
