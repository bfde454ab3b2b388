package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskledger/taskledger-api/internal/config"
	"github.com/taskledger/taskledger-api/internal/handler"
	"github.com/taskledger/taskledger-api/internal/middleware"
	"github.com/taskledger/taskledger-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler  *handler.AuthHandler
	TaskHandler  *handler.TaskHandler
	UserHandler  *handler.UserHandler
	AuditHandler *handler.AuditHandler
	AuthRequired fiber.Handler
	LoginLimiter fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	authRequired := deps.AuthRequired
	if authRequired == nil {
		authRequired = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		authGroup := api.Group("/auth")
		if deps.LoginLimiter != nil {
			deps.AuthHandler.RegisterPublic(authGroup, deps.LoginLimiter)
		} else {
			deps.AuthHandler.RegisterPublic(authGroup)
		}
		deps.AuthHandler.RegisterProtected(authGroup, authRequired)
	}

	if deps.TaskHandler != nil {
		tasks := api.Group("/tasks", authRequired)
		deps.TaskHandler.Register(tasks)
	}

	if deps.UserHandler != nil {
		users := api.Group("/users", authRequired, middleware.RequireAdmin())
		deps.UserHandler.Register(users)
	}

	if deps.AuditHandler != nil {
		audit := api.Group("/audit", authRequired)
		deps.AuditHandler.Register(audit)
	}
}
