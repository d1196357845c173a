package http

import "github.com/gofiber/fiber/v3"

// Health is the liveness probe.
func Health(ctx fiber.Ctx) error {
	ctx.Status(fiber.StatusOK)
	return ctx.JSON("UP!")
}
