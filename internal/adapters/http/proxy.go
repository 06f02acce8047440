package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// FoodWasteProxyHandler forwards lat, lng and radius to the food-waste API using the
// server-side credential. Error bodies have the {error, details|message} shape
// browser clients of this endpoint expect, not APIError.
func FoodWasteProxyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, lng, radius := c.Query("lat"), c.Query("lng"), c.Query("radius")
		if lat == "" || lng == "" || radius == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Missing required parameters: lat, lng, radius",
			})
		}

		log := LoggerFromCtx(c.UserContext())
		if deps.Proxy == nil || !deps.Proxy.Configured() {
			log.Error("food-waste API key not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		resp, err := deps.Proxy.Forward(c.UserContext(), lat, lng, radius)
		if err != nil {
			log.Error("food-waste proxy", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal server error",
				"message": err.Error(),
			})
		}

		if !resp.OK() {
			log.Warn("food-waste API error", "status", resp.StatusCode, "body", string(resp.Body))
			return c.Status(resp.StatusCode).JSON(fiber.Map{
				"error":   fmt.Sprintf("API error: %d", resp.StatusCode),
				"details": string(resp.Body),
			})
		}

		if !json.Valid(resp.Body) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Internal server error",
				"message": "invalid JSON from food-waste API",
			})
		}

		c.Set("Cache-Control", "no-store")
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).Send(resp.Body)
	}
}
