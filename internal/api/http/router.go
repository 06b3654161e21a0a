package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Workflow       *handlers.WorkflowHandler
	Notifications  *handlers.NotificationsHandler
	Reference      *handlers.ReferenceHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Route-level role guards only scope who
// may reach an endpoint; the lifecycle engine remains the authority on every
// transition.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	api.Get("/users/me", cfg.Users.Me)
	api.Post("/users/staff", auth.RequireRole(domain.RoleAdmin), cfg.Users.CreateStaff)

	api.Get("/reference-data", cfg.Reference.ReferenceData)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/validate", cfg.Tickets.Validate)
	tickets.Post("/:id/feedback", cfg.Tickets.SubmitFeedback)

	tickets.Post("/:id/assign", auth.RequireRole(auth.AssignmentRoles()...), cfg.Workflow.Assign)
	tickets.Post("/:id/delegate", auth.RequireRole(auth.AssignmentRoles()...), cfg.Workflow.Delegate)
	tickets.Post("/:id/start", auth.RequireRole(auth.StaffRoles()...), cfg.Workflow.Start)
	tickets.Post("/:id/resolve", auth.RequireRole(auth.StaffRoles()...), cfg.Workflow.Resolve)

	notifications := api.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)
}
