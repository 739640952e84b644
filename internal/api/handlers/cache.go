/**
 * @description
 * Cache management API handlers.
 * Exposes cache artifact inspection and the clear-and-rebuild operation.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 */

package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shelfstats/backend/internal/logger"
	"github.com/shelfstats/backend/internal/models"
	"github.com/shelfstats/backend/internal/services"
)

type CacheHandler struct {
	Catalog *services.CatalogService
}

func NewCacheHandler(catalog *services.CatalogService) *CacheHandler {
	return &CacheHandler{Catalog: catalog}
}

func (h *CacheHandler) ready() error {
	if h.Catalog == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Catalog service not initialized")
	}
	return nil
}

// GetCacheInfo reports cache artifact state and the effective storage mode
// GET /cache-info
func (h *CacheHandler) GetCacheInfo(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	info := h.Catalog.CacheInfo()
	return c.JSON(models.OK("Cache information retrieved successfully", []interface{}{info}))
}

// ClearCache deletes the cache artifacts and rebuilds the store
// POST /clear-cache
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.ready(); err != nil {
		return err
	}

	if err := h.Catalog.ClearCache(c.Context()); err != nil {
		logger.Error("CacheHandler: clear-cache failed: %v", err)
		return err
	}

	return c.JSON(models.OK("Cache cleared successfully", []interface{}{
		fiber.Map{"message": "All cached data has been cleared and the store rebuilt"},
	}))
}
