package handlers

import (
	"catalyst/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	cache *cache.CacheService
}

func NewHealthHandler(cacheSvc *cache.CacheService) *HealthHandler {
	return &HealthHandler{cache: cacheSvc}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	redisStatus := "connected"
	if h.cache == nil {
		redisStatus = "disabled"
	} else if err := h.cache.HealthCheck(c.Context()); err != nil {
		redisStatus = "unreachable"
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"services": fiber.Map{
			"redis": redisStatus,
		},
	})
}
