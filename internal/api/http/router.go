package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tickethub/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Tickets *handlers.TicketsHandler
	Metrics *handlers.MetricsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health", cfg.Health.Health)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Show)

	tickets := app.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/search", cfg.Tickets.SearchTickets)
	tickets.Get("/stats/summary", cfg.Tickets.Stats)
	tickets.Get("/:ticket_id", cfg.Tickets.GetTicket)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})
}
