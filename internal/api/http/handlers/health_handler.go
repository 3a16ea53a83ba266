package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/tickethub/pkg/util/errorutil"
)

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	upstream    Pinger
}

// NewHealthHandler returns a new handler instance.
func NewHealthHandler(serviceName, version string, upstream Pinger) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, upstream: upstream}
}

// Root describes the API.
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to TicketHub API",
		"version": h.version,
		"health":  "/health",
	})
}

// Health is the plain health check used by container orchestration.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking the upstream API.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	if err := h.upstream.Ping(ctx); err != nil {
		depStatus["upstream"] = apperrors.ToDomainError(err).Message
		ready = false
	} else {
		depStatus["upstream"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    apperrors.CodeDependencyUnhealthy,
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}
