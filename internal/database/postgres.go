package database

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sandeepkv93/account-onboarding-service/internal/config"
	"github.com/sandeepkv93/account-onboarding-service/internal/observability"
)

// Open connects to PostgreSQL, or to SQLite when DATABASE_URL starts with
// "sqlite:" or "file:". Unique violations surface as gorm.ErrDuplicatedKey.
func Open(cfg *config.Config) (*gorm.DB, error) {
	start := time.Now()
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	dialector, driver := dialectorFor(cfg.DatabaseURL)
	db, err := gorm.Open(dialector, gcfg)
	ctx := context.Background()
	observability.RecordDatabaseStartupDuration(ctx, "open", time.Since(start))
	if err != nil {
		observability.RecordDatabaseStartupEvent(ctx, "open", "error")
		return nil, err
	}
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite serializes writers; one connection keeps conditional
		// updates and transactions from tripping over SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}
	observability.RecordDatabaseStartupEvent(ctx, "open", "success")
	return db, nil
}

func dialectorFor(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:")), "sqlite"
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn), "sqlite"
	default:
		return postgres.Open(dsn), "postgres"
	}
}
