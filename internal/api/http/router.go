package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mdfarid01/RapidTrack/internal/api/http/handlers"
	"github.com/mdfarid01/RapidTrack/internal/auth"
	"github.com/mdfarid01/RapidTrack/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Issues         *handlers.IssuesHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Post("/users", cfg.Users.CreateStaff)

	issues := app.Group("/issues", cfg.AuthMiddleware.Handle)
	issues.Post("/", cfg.Issues.Create)
	issues.Get("/", cfg.Issues.List)
	issues.Get("/:id", cfg.Issues.Get)
	issues.Patch("/:id/status", cfg.Issues.UpdateStatus)
	issues.Post("/:id/assign", cfg.Issues.Assign)
	issues.Post("/:id/escalate", cfg.Issues.Escalate)
	issues.Patch("/:id/department", cfg.Issues.ReassignDepartment)
	issues.Post("/:id/comments", cfg.Issues.AddComment)
	issues.Get("/:id/activities", cfg.Issues.ListActivities)

	app.Get("/activities/recent", cfg.AuthMiddleware.Handle, cfg.Issues.RecentActivities)
	app.Get("/analytics", cfg.AuthMiddleware.Handle, cfg.Analytics.Report)
}
