package web

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures the application routes.
func SetupRoutes(app *fiber.App, handlers *Handlers, rateLimiter *RateLimiter) {
	app.Get("/healthz", handlers.Health)

	// Resolution; /api/proxy is kept for existing clients.
	app.Get("/resolve", rateLimiter.Middleware(), handlers.Resolve)
	app.Get("/api/proxy", rateLimiter.Middleware(), handlers.Resolve)

	// Top 10 listing; /api/net51/top10 is kept for existing clients.
	app.Get("/listing/top10", handlers.TopTen)
	app.Get("/api/net51/top10", handlers.TopTen)
}
