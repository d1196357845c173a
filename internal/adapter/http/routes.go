package http

import "github.com/gofiber/fiber/v3"

// RegisterRoutes mounts the management routes. /metrics is mounted
// separately by the metrics wiring.
func RegisterRoutes(app *fiber.App, h *Handlers) {
	app.Get("/", h.Index)
	app.Get("/health", Health)
	app.Get("/status", h.Status)
	app.Get("/list", h.List)
	app.Get("/logs", h.Logs)
	app.Post("/subscribe", h.Subscribe)
	app.Post("/unsubscribe", h.Unsubscribe)
	app.Post("/webhook", h.Webhook)
}
