package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/queryflow/queryflow-backend/internal/services"
)

// GetCacheStats returns cache counters
func GetCacheStats(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(svc.Cache.Stats(c.Context()))
	}
}

// InvalidateCacheEntry removes a single cache entry by fingerprint
func InvalidateCacheEntry(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fingerprint := c.Params("fingerprint")

		if err := svc.Cache.Invalidate(c.Context(), fingerprint); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "Cache entry invalidated",
		})
	}
}

// InvalidateCache clears every cache entry in both tiers
func InvalidateCache(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Cache.InvalidateAll(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "Cache cleared",
		})
	}
}
