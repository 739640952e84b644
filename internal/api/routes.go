/**
 * @description
 * API route definitions.
 * Maps each query-layer operation to one read endpoint plus the cache
 * management endpoints, and provides the uniform error-mapping handler
 * wired into fiber.Config.ErrorHandler.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/services
 */

package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/shelfstats/backend/internal/api/handlers"
	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/logger"
	"github.com/shelfstats/backend/internal/models"
	"github.com/shelfstats/backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, catalog *services.CatalogService, stats *services.StatsService, cfg *config.Config) {
	statsHandler := handlers.NewStatsHandler(stats, cfg.Analytics)
	cacheHandler := handlers.NewCacheHandler(catalog)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(models.OK("Catalog Rating Analytics API", fiber.Map{
			"endpoints": []string{
				"/category-stats",
				"/z-score-outliers",
				"/high-variability",
				"/low-variability",
				"/global-stats",
				"/category-distribution",
				"/data-quality",
				"/cache-info",
				"/clear-cache",
			},
		}))
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/category-stats", statsHandler.GetCategoryStats)
	app.Get("/z-score-outliers", statsHandler.GetZScoreOutliers)
	app.Get("/high-variability", statsHandler.GetHighVariability)
	app.Get("/low-variability", statsHandler.GetLowVariability)
	app.Get("/global-stats", statsHandler.GetGlobalStats)
	app.Get("/category-distribution", statsHandler.GetCategoryDistribution)
	app.Get("/data-quality", statsHandler.GetDataQuality)

	app.Get("/cache-info", cacheHandler.GetCacheInfo)
	app.Post("/clear-cache", cacheHandler.ClearCache)
}

// ErrorHandler translates errors escaping a handler into the uniform
// envelope. Parameter validation failures map to 400, everything else
// to the 500 envelope, so handlers can simply return errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperr.ErrInvalidArgument) {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("Invalid request parameter", err.Error()))
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.Fail(fe.Message, fe.Message))
	}

	logger.Error("Unhandled error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("Internal server error", err.Error()))
}
