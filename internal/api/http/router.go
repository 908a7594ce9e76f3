package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Dispatch       *handlers.DispatchHandler
	Attendants     *handlers.AttendantsHandler
	Services       *handlers.ServicesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authed := app.Group("", cfg.AuthMiddleware.Handle)

	tickets := authed.Group("/tickets")
	tickets.Post("", auth.RequireRole(domain.RoleIntake, domain.RoleAdmin), cfg.Tickets.IssueTicket)
	tickets.Get("/pending", auth.RequireRole(domain.RoleBox, domain.RoleAdmin, domain.RoleDisplay), cfg.Tickets.ListPending)
	tickets.Get("/pending/count", auth.RequireRole(domain.RoleBox, domain.RoleAdmin, domain.RoleDisplay), cfg.Tickets.PendingCount)

	authed.Post("/dispatch", auth.RequireRole(domain.RoleBox, domain.RoleAdmin), cfg.Dispatch.DispatchNext)
	authed.Get("/calls/recent", auth.RequireRole(domain.RoleBox, domain.RoleAdmin, domain.RoleDisplay), cfg.Dispatch.RecentCalls)

	stats := authed.Group("/stats", auth.RequireRole(domain.RoleAdmin))
	stats.Get("/monthly", cfg.Dispatch.MonthlyStats)
	stats.Get("/by-service", cfg.Dispatch.ServiceStats)

	attendants := authed.Group("/attendants")
	attendants.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Attendants.Create)
	attendants.Get("", auth.RequireRole(domain.RoleAdmin), cfg.Attendants.List)
	attendants.Get("/available", auth.RequireRole(domain.RoleBox, domain.RoleAdmin), cfg.Attendants.Available)
	attendants.Get("/:id", auth.RequireRole(domain.RoleBox, domain.RoleAdmin), cfg.Attendants.Get)
	attendants.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Attendants.Delete)
	attendants.Put("/:id/availability", auth.RequireRole(domain.RoleBox, domain.RoleAdmin), cfg.Attendants.SetAvailability)
	attendants.Put("/:id/eligibility", auth.RequireRole(domain.RoleAdmin), cfg.Attendants.SetEligibility)
	attendants.Put("/:id/desk", auth.RequireRole(domain.RoleAdmin), cfg.Attendants.SetDesk)

	services := authed.Group("/services")
	services.Get("", cfg.Services.List)
	services.Get("/:code", cfg.Services.Get)
	services.Post("", auth.RequireRole(domain.RoleAdmin), cfg.Services.Create)
	services.Delete("/:code", auth.RequireRole(domain.RoleAdmin), cfg.Services.Delete)
}
