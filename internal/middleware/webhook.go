package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

const WebhookSecretHeader = "X-Webhook-Secret"

// RequireWebhookSecret accepts only callers presenting the shared secret.
// With no secret configured the endpoint is closed.
func RequireWebhookSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(503).JSON(fiber.Map{"error": "Webhook is not configured"})
		}
		got := c.Get(WebhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid webhook secret"})
		}
		return c.Next()
	}
}
