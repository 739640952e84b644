/**
 * @description
 * Manual load check.
 * Resolves the data source, builds (or reuses) the catalog store, and
 * prints the data quality report and cache state. Useful for warming
 * the cache on a fresh deployment without starting the HTTP server.
 */

package main

import (
	"context"
	"log"

	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/services"
)

func main() {
	log.Println("🚀 Starting manual catalog load check...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	resolver := &dataset.CachingResolver{
		Client:      dataset.NewClient(cfg),
		CSVPath:     cfg.Storage.CSVPath,
		DirWritable: cfg.Storage.DirWritable,
	}
	catalog := services.NewCatalogService(cfg, resolver)

	ctx := context.Background()
	if err := catalog.Open(ctx); err != nil {
		log.Fatalf("failed to open catalog store: %v", err)
	}
	defer catalog.Close()

	stats := services.NewStatsService(catalog, cfg)

	report, err := stats.DataQuality(ctx)
	if err != nil {
		log.Fatalf("data quality check failed: %v", err)
	}
	log.Printf("✅ Rows: %d total, %d valid (%d null stars, %d null categories), %d categories",
		report.TotalRows, report.ValidRows, report.NullStars, report.NullCategories, report.UniqueCategories)

	info := catalog.CacheInfo()
	log.Printf("✅ Cache: csv=%v (%.2f MB) db=%v (%.2f MB) records=%d persistent=%v",
		info.CSVExists, info.CSVSizeMB, info.DBExists, info.DBSizeMB, info.RecordCount, info.UsePersistentDB)
}
