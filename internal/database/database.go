package database

import (
	"fmt"
	"strings"

	"catalogsync/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

// New opens the run history database. URLs starting with sqlite:// open a
// SQLite file, anything else is handed to the PostgreSQL driver.
func New(databaseURL, logLevel string) (*Database, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	} else {
		// PostgreSQL for production
		dialector = postgres.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLevel(logLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.JobRun{}, &models.RowResult{}); err != nil {
		return nil, fmt.Errorf("failed to migrate tables: %w", err)
	}

	return &Database{DB: db}, nil
}

func gormLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return gormlogger.Info
	case "error", "fatal", "panic":
		return gormlogger.Error
	}
	return gormlogger.Warn
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
