package sqlite

import (
	"fmt"
	"log"
	"os"
	"reminderengine/internal/domain/entity"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens the SQLite database at dsn and migrates the engine's tables.
// sqlDebug logs every statement; otherwise only slow queries and errors are logged.
func NewDB(dsn string, sqlDebug bool) (*gorm.DB, error) {
	level := gormlogger.Warn
	if sqlDebug {
		level = gormlogger.Info
	}
	newLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true, // Not-found is an expected outcome for flags and jobs
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to connect to database %s: %w", dsn, err)
	}

	// SQLite allows one writer at a time; a single connection serializes
	// the per-key read-modify-write operations of the registry and job queue.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to get underlying *sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// AutoMigrate automatically migrates the database schema for the defined entities.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.Item{},
		&entity.Reminder{},
		&entity.Flag{},
		&entity.Job{},
		&entity.Recipient{},
	)
	if err != nil {
		return fmt.Errorf("🔴 ERROR: schema migration failed: %w", err)
	}
	return nil
}

// CloseDB closes the database connection.
func CloseDB(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("🔴 ERROR: failed to get underlying *sql.DB: %w", err)
	}
	return sqlDB.Close()
}
