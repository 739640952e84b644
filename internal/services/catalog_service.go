/**
 * @description
 * Catalog connection lifecycle manager.
 * Owns the single shared embedded-store connection: liveness probing
 * before requests, one-shot rebuild on a dead connection, cache clearing
 * and cache inspection. This is the only mutable process-wide state in
 * the system.
 *
 * @dependencies
 * - gorm.io/gorm
 * - backend/internal/db
 * - backend/internal/dataset
 *
 * @notes
 * - Queries run under the read lock for their whole duration, so a
 *   connection replacement (rebuild, clear-cache) waits for in-flight
 *   readers and a reader never observes a half-dropped table.
 * - Rebuild is attempted once per failed probe, never in a retry loop.
 */

package services

import (
	"context"
	"os"
	"sync"

	"gorm.io/gorm"

	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/db"
	"github.com/shelfstats/backend/internal/logger"
	"github.com/shelfstats/backend/internal/models"
)

// StoreView runs fn against a live catalog connection that stays valid
// for the duration of the call. StatsService depends on this rather
// than on CatalogService so tests can inject a fixture.
type StoreView interface {
	View(ctx context.Context, fn func(conn *gorm.DB) error) error
}

type CatalogService struct {
	cfg      *config.Config
	resolver dataset.Resolver

	mu sync.RWMutex
	db *gorm.DB
}

func NewCatalogService(cfg *config.Config, resolver dataset.Resolver) *CatalogService {
	return &CatalogService{
		cfg:      cfg,
		resolver: resolver,
	}
}

// Open establishes the initial connection, downloading and loading the
// dataset as needed.
func (s *CatalogService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := db.Connect(ctx, s.cfg, s.resolver)
	if err != nil {
		return err
	}
	s.db = conn
	return nil
}

// View probes the shared connection and runs fn against it under the
// read lock, so the connection cannot be replaced out from under an
// in-flight query. A failed probe upgrades to the write lock and
// rebuilds once; fn then runs under that lock. A request that lost the
// rebuild race to another caller reuses the winner's connection.
func (s *CatalogService) View(ctx context.Context, fn func(conn *gorm.DB) error) error {
	s.mu.RLock()
	if s.db != nil && db.Ping(s.db) == nil {
		defer s.mu.RUnlock()
		return fn(s.db)
	}
	s.mu.RUnlock()

	logger.Error("Catalog connection invalid, rebuilding")

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil || db.Ping(s.db) != nil {
		db.Close(s.db)
		s.db = nil

		conn, err := db.Connect(ctx, s.cfg, s.resolver)
		if err != nil {
			return err
		}
		s.db = conn
	}
	return fn(s.db)
}

// ClearCache deletes both cache artifacts and rebuilds the store from
// source. Absent artifacts are not an error.
func (s *CatalogService) ClearCache(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db.Close(s.db)
	s.db = nil

	if err := removeIfExists(s.cfg.Storage.CSVPath); err != nil {
		return err
	}
	logger.Info("Cleared CSV cache")

	if err := removeIfExists(s.cfg.Storage.DBPath); err != nil {
		return err
	}
	logger.Info("Cleared database cache")

	conn, err := db.Connect(ctx, s.cfg, s.resolver)
	if err != nil {
		return err
	}
	s.db = conn
	return nil
}

// CacheInfo reports the state of the cache artifacts and the effective
// storage mode. Read-only apart from a short-lived probe connection.
func (s *CatalogService) CacheInfo() models.CacheInfo {
	info := models.CacheInfo{
		RestrictedEnv:   s.cfg.Storage.RestrictedEnv,
		UsePersistentDB: s.cfg.Storage.UsePersistent(),
	}

	if fi, err := os.Stat(s.cfg.Storage.CSVPath); err == nil {
		info.CSVExists = true
		info.CSVSizeMB = roundMB(fi.Size())
	}

	if fi, err := os.Stat(s.cfg.Storage.DBPath); err == nil {
		info.DBExists = true
		info.DBSizeMB = roundMB(fi.Size())
		if count, err := db.ProbeRowCount(s.cfg.Storage.DBPath); err == nil {
			info.RecordCount = count
		}
		return info
	}

	// In-memory mode has no file to probe; count through the live
	// connection instead.
	s.mu.RLock()
	conn := s.db
	s.mu.RUnlock()
	if conn != nil {
		if count, err := db.RowCount(conn); err == nil {
			info.RecordCount = count
		}
	}
	return info
}

// Close tears down the shared connection at shutdown.
func (s *CatalogService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	db.Close(s.db)
	s.db = nil
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func roundMB(size int64) float64 {
	mb := float64(size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
