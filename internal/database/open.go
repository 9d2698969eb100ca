package database

import (
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sitelog/backend/internal/config"
	"github.com/sitelog/backend/internal/tracking"
	"github.com/sitelog/backend/internal/users"
)

// Open establishes the database connection for the configured driver and
// performs schema migrations. SQLite is the default backend; Postgres is
// selected via database.driver.
func Open(driver, dsn string, logger *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	gormConfig := &gorm.Config{TranslateError: true}

	var db *gorm.DB
	var err error
	switch driver {
	case config.DriverSQLite:
		db, err = gorm.Open(sqlite.Open(dsn), gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			return nil, dbErr
		}
		sqlDB.SetMaxOpenConns(1)
	case config.DriverPostgres:
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if err := db.AutoMigrate(
		&tracking.Site{},
		&tracking.Event{},
		&tracking.Letter{},
		&tracking.LetterNote{},
		&tracking.Attachment{},
		&users.Account{},
		&migrationRecord{},
	); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized", zap.String("driver", driver))
	}

	return db, nil
}
