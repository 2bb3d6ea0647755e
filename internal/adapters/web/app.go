package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// NewApp assembles the Fiber application with its middleware chain and
// routes. Panics are recovered inside the request logger so they are
// logged with their final status.
func NewApp(handlers *Handlers, rateLimiter *RateLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stream-resolver",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(requestid.New(RequestIDConfig()))
	app.Use(RequestIDToContextMiddleware())
	app.Use(RequestLoggerMiddleware())
	app.Use(recover.New())

	SetupRoutes(app, handlers, rateLimiter)
	return app
}
