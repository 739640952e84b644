/**
 * @description
 * Main entry point for the Catalog Rating Analytics API.
 * Loads configuration, resolves the data source, builds the embedded
 * catalog store, and serves the statistics endpoints over HTTP.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2: Web framework
 * - backend/internal/config: Config loader
 * - backend/internal/services: Catalog and statistics services
 *
 * @notes
 * - Startup downloads the dataset on a cache miss, so first boot can
 *   take a while on a cold data directory.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/shelfstats/backend/internal/api"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/dataset"
	"github.com/shelfstats/backend/internal/services"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Resolve the data source and build the catalog store
	resolver := &dataset.CachingResolver{
		Client:      dataset.NewClient(cfg),
		CSVPath:     cfg.Storage.CSVPath,
		DirWritable: cfg.Storage.DirWritable,
	}
	catalog := services.NewCatalogService(cfg, resolver)
	if err := catalog.Open(context.Background()); err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer catalog.Close()

	stats := services.NewStatsService(catalog, cfg)

	// Log the data quality summary once the store is up
	if report, err := stats.DataQuality(context.Background()); err == nil {
		log.Printf("Data quality: %d rows, %d valid, %d null stars, %d null categories, %d categories",
			report.TotalRows, report.ValidRows, report.NullStars, report.NullCategories, report.UniqueCategories)
	}

	// 3. Initialize Fiber App
	app := fiber.New(fiber.Config{
		AppName:       "Catalog Rating Analytics",
		StrictRouting: true,
		CaseSensitive: true,
		ErrorHandler:  api.ErrorHandler,
	})

	// 4. Global Middleware
	app.Use(recover.New())     // Panic recovery
	app.Use(fiberlogger.New()) // Request logging
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// 5. Routes
	api.SetupRoutes(app, catalog, stats, cfg)

	// 6. Start Server
	go func() {
		log.Printf("🚀 Starting Catalog Analytics API on port %s", cfg.Server.Port)
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 7. Shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
