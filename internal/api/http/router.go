package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/segnala-service/internal/api/http/handlers"
	"github.com/spec-kit/segnala-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Requests       *handlers.RequestsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	api.Get("/me", handlers.Me)

	requests := api.Group("/requests")
	requests.Post("", cfg.Requests.CreateRequest)
	requests.Get("", cfg.Requests.ListRequests)
	requests.Get("/:id", cfg.Requests.GetRequest)
	requests.Get("/:id/timeline", cfg.Requests.GetTimeline)

	requests.Post("/:id/status", auth.RequireAdmin(), cfg.Requests.Transition)
	requests.Put("/:id/note", auth.RequireAdmin(), cfg.Requests.SaveNote)
	requests.Post("/:id/notify", auth.RequireAdmin(), cfg.Requests.Notify)

	admin := api.Group("/admin", auth.RequireAdmin())
	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/profiles", cfg.Admin.ListProfiles)
	admin.Put("/profiles/:id", cfg.Admin.UpdateProfile)
}
