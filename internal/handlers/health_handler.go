package handlers

import (
	"context"
	"time"

	"recipebox/internal/store"

	"github.com/gofiber/fiber/v2"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports whether the store is connected and reachable.
type HealthHandler struct {
	avail store.Availability
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(avail store.Availability) *HealthHandler {
	return &HealthHandler{avail: avail}
}

// RegisterRoutes registers the health route with the Fiber app.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth reports whether the store is connected and reachable.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	s, err := h.avail.Store()
	if err != nil {
		return c.JSON(fiber.Map{
			"status": "degraded",
			"store":  "unavailable",
			"reason": err.Error(),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), healthPingTimeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"store":  "unreachable",
			"driver": s.Driver(),
			"reason": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"store":  "connected",
		"driver": s.Driver(),
	})
}
