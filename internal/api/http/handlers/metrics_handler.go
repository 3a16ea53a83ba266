package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tickethub/internal/observability"
)

// CacheSizer reports the number of cached entries.
type CacheSizer interface {
	Len() int
}

// MetricsHandler exposes in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
	users   CacheSizer
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics, users CacheSizer) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, users: users}
}

// Show GET /metrics.
func (h *MetricsHandler) Show(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"http":             h.metrics.Snapshot(),
		"user_cache_items": h.users.Len(),
	})
}
