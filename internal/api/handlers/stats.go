/**
 * @description
 * Statistics API handlers.
 * One handler per query-layer operation; parameter bounds are checked
 * before any query runs, and errors bubble up to the shared
 * error-mapping handler.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/shelfstats/backend/internal/apperr"
	"github.com/shelfstats/backend/internal/config"
	"github.com/shelfstats/backend/internal/logger"
	"github.com/shelfstats/backend/internal/models"
	"github.com/shelfstats/backend/internal/services"
)

type StatsHandler struct {
	Stats    *services.StatsService
	Defaults config.AnalyticsConfig
}

func NewStatsHandler(stats *services.StatsService, defaults config.AnalyticsConfig) *StatsHandler {
	return &StatsHandler{Stats: stats, Defaults: defaults}
}

func (h *StatsHandler) ready() error {
	if h.Stats == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Statistics service not initialized")
	}
	return nil
}

// GetCategoryStats returns rating statistics per qualifying category
// GET /category-stats
func (h *StatsHandler) GetCategoryStats(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	results, err := h.Stats.CategoryStats(c.Context())
	if err != nil {
		logger.Error("StatsHandler: category-stats failed: %v", err)
		return err
	}
	return c.JSON(results)
}

// GetZScoreOutliers returns categories whose mean rating is an outlier
// among all category means
// GET /z-score-outliers?threshold=1.75
func (h *StatsHandler) GetZScoreOutliers(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	threshold, err := queryFloat(c, "threshold", h.Defaults.DefaultZThreshold)
	if err != nil {
		return err
	}

	results, err := h.Stats.ZScoreOutliers(c.Context(), threshold)
	if err != nil {
		logger.Error("StatsHandler: z-score-outliers failed: %v", err)
		return err
	}
	return c.JSON(results)
}

// GetHighVariability returns the categories with the widest rating spread
// GET /high-variability?limit=20
func (h *StatsHandler) GetHighVariability(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	limit, err := queryInt(c, "limit", h.Defaults.DefaultLimit)
	if err != nil {
		return err
	}

	results, err := h.Stats.HighVariability(c.Context(), limit)
	if err != nil {
		logger.Error("StatsHandler: high-variability failed: %v", err)
		return err
	}
	return c.JSON(results)
}

// GetLowVariability returns the categories with the narrowest rating spread
// GET /low-variability?limit=20
func (h *StatsHandler) GetLowVariability(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	limit, err := queryInt(c, "limit", h.Defaults.DefaultLimit)
	if err != nil {
		return err
	}

	results, err := h.Stats.LowVariability(c.Context(), limit)
	if err != nil {
		logger.Error("StatsHandler: low-variability failed: %v", err)
		return err
	}
	return c.JSON(results)
}

// GetGlobalStats returns aggregate statistics over the whole catalog
// GET /global-stats
func (h *StatsHandler) GetGlobalStats(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	stats, err := h.Stats.GlobalStats(c.Context())
	if err != nil {
		logger.Error("StatsHandler: global-stats failed: %v", err)
		return err
	}
	return c.JSON(models.OK("Global statistics retrieved successfully", []interface{}{stats}))
}

// GetCategoryDistribution returns product counts per category, small
// categories included
// GET /category-distribution
func (h *StatsHandler) GetCategoryDistribution(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	rows, err := h.Stats.CategoryDistribution(c.Context())
	if err != nil {
		logger.Error("StatsHandler: category-distribution failed: %v", err)
		return err
	}
	return c.JSON(models.OK("Category distribution retrieved successfully", rows))
}

// GetDataQuality returns the load-time data quality report
// GET /data-quality
func (h *StatsHandler) GetDataQuality(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	report, err := h.Stats.DataQuality(c.Context())
	if err != nil {
		logger.Error("StatsHandler: data-quality failed: %v", err)
		return err
	}
	return c.JSON(models.OK("Data quality report retrieved successfully", []interface{}{report}))
}

// queryFloat parses an optional float query parameter, rejecting
// non-numeric input instead of silently substituting the default.
func queryFloat(c *fiber.Ctx, name string, fallback float64) (float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Invalid("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Invalid("%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
