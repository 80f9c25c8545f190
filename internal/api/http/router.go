package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Projects       *handlers.ProjectsHandler
	Subscriptions  *handlers.SubscriptionsHandler
	Notifications  *handlers.NotificationsHandler
	Suggestions    *handlers.SuggestionsHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	users := api.Group("/users")
	users.Get("/me", cfg.Users.Me)
	users.Patch("/me", cfg.Users.UpdateProfile)
	users.Get("/", cfg.Users.ListUsers)
	users.Patch("/:id/role", cfg.Users.ChangeRole)
	users.Delete("/:id", cfg.Users.DeleteUser)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/resolve", cfg.Tickets.ResolveTicket)
	tickets.Post("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/satisfaction", cfg.Tickets.RateTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Get("/:id/history", cfg.Tickets.GetHistory)
	tickets.Post("/:id/subscription", cfg.Subscriptions.SubscribeTicket)
	tickets.Delete("/:id/subscription", cfg.Subscriptions.UnsubscribeTicket)

	projects := api.Group("/projects")
	projects.Post("/", cfg.Projects.CreateProject)
	projects.Get("/", cfg.Projects.ListProjects)
	projects.Get("/:id", cfg.Projects.GetProject)
	projects.Patch("/:id", cfg.Projects.UpdateProject)
	projects.Delete("/:id", cfg.Projects.DeleteProject)
	projects.Get("/:id/ticket-types", cfg.Projects.ListProjectTicketTypes)
	projects.Post("/:id/ticket-types/:typeId", cfg.Projects.AddTicketType)
	projects.Delete("/:id/ticket-types/:typeId", cfg.Projects.RemoveTicketType)
	projects.Post("/:id/subscription", cfg.Subscriptions.SubscribeProject)
	projects.Delete("/:id/subscription", cfg.Subscriptions.UnsubscribeProject)

	api.Post("/ticket-types", cfg.Projects.CreateTicketType)
	api.Post("/sla-policies", cfg.Projects.CreateSlaPolicy)
	api.Get("/sla-policies", cfg.Projects.ListSlaPolicies)

	api.Get("/subscriptions", cfg.Subscriptions.List)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Post("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	suggestions := api.Group("/suggestions")
	suggestions.Post("/", cfg.Suggestions.Create)
	suggestions.Get("/", cfg.Suggestions.List)
	suggestions.Post("/:id/assign", cfg.Suggestions.Assign)
	suggestions.Post("/:id/request-info", cfg.Suggestions.RequestInfo)
	suggestions.Post("/:id/ready", cfg.Suggestions.MarkReady)
	suggestions.Post("/:id/sign-off", cfg.Suggestions.SignOff)

	api.Get("/analytics/summary", cfg.Analytics.Summary)
}
