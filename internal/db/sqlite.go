/**
 * @description
 * Embedded SQLite connection manager using GORM.
 * Decides between a persistent on-disk store and an in-memory store,
 * reuses a healthy existing database file, and builds a fresh store
 * from the resolved CSV otherwise.
 *
 * @dependencies
 * - gorm.io/gorm: ORM library
 * - github.com/glebarez/sqlite: pure-Go SQLite driver
 * - backend/internal/dataset: CSV source resolution
 *
 * @notes
 * - The pool is pinned to a single open connection: the whole service
 *   shares one embedded connection, and the in-memory DSN only survives
 *   as long as a connection holds it open.
 */

package db

import (
	"context"
	"fmt"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/logger"
)

// MemoryDSN keeps the store alive across the pooled connection via the
// shared cache; a plain ":memory:" would give every new connection an
// empty database.
const MemoryDSN = "file::memory:?cache=shared"

// Connect resolves the storage mode and returns a ready catalog store.
// Persistent mode degrades to in-memory when the data directory is not
// writable; that degradation is logged, never surfaced as an error.
func Connect(ctx context.Context, cfg *config.Config, resolver dataset.Resolver) (*gorm.DB, error) {
	usePersistent := cfg.Storage.PersistentOverride
	if usePersistent {
		if err := persistentAvailable(cfg); err != nil {
			logger.Info("Falling back to in-memory database: %v", err)
			usePersistent = false
		}
	}

	if usePersistent {
		if db, ok := reuseExisting(cfg); ok {
			return db, nil
		}

		logger.Info("Creating new persistent database at %s", cfg.Storage.DBPath)
		db, err := open(cfg.Storage.DBPath, cfg.Server.Env)
		if err != nil {
			return nil, err
		}
		if err := LoadCatalog(ctx, db, resolver); err != nil {
			Close(db)
			return nil, err
		}
		return db, nil
	}

	logger.Info("Creating new in-memory database")
	db, err := open(MemoryDSN, cfg.Server.Env)
	if err != nil {
		return nil, err
	}
	if err := LoadCatalog(ctx, db, resolver); err != nil {
		Close(db)
		return nil, err
	}
	return db, nil
}

// persistentAvailable reports whether the on-disk store can actually be
// used, with ErrStorageUnavailable explaining why not.
func persistentAvailable(cfg *config.Config) error {
	if !cfg.Storage.DirWritable {
		return fmt.Errorf("%w: data directory %s is not writable", apperr.ErrStorageUnavailable, cfg.Storage.DataDir)
	}
	return nil
}

// reuseExisting opens an existing non-empty database file. An empty or
// unreadable file is discarded so Connect rebuilds from the CSV.
func reuseExisting(cfg *config.Config) (*gorm.DB, bool) {
	info, err := os.Stat(cfg.Storage.DBPath)
	if err != nil || info.Size() == 0 {
		if err == nil {
			os.Remove(cfg.Storage.DBPath)
		}
		return nil, false
	}

	db, err := open(cfg.Storage.DBPath, cfg.Server.Env)
	if err != nil {
		os.Remove(cfg.Storage.DBPath)
		return nil, false
	}

	count, err := RowCount(db)
	if err != nil || count == 0 {
		logger.Info("Database at %s exists but is empty or unreadable, will reload data", cfg.Storage.DBPath)
		Close(db)
		os.Remove(cfg.Storage.DBPath)
		return nil, false
	}

	logger.Info("Using persistent database at %s (%d records)", cfg.Storage.DBPath, count)
	return db, true
}

// open establishes the GORM connection and pins the pool to one conn
func open(dsn, env string) (*gorm.DB, error) {
	gormLogLevel := gormLogger.Error
	if env == "development" {
		gormLogLevel = gormLogger.Warn
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

// RowCount returns the number of rows in the catalog table.
func RowCount(db *gorm.DB) (int64, error) {
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM amazon_products").Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ping issues the trivial liveness probe used before serving a request.
func Ping(db *gorm.DB) error {
	var one int
	return db.Raw("SELECT 1").Scan(&one).Error
}

// Close releases the underlying connection; safe to call on a store
// that already failed half-way through setup.
func Close(db *gorm.DB) {
	if db == nil {
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

// ProbeRowCount opens a short-lived connection against a database file
// just to count rows, as used by cache-info.
func ProbeRowCount(path string) (int64, error) {
	db, err := open(path, "")
	if err != nil {
		return 0, err
	}
	defer Close(db)
	return RowCount(db)
}
