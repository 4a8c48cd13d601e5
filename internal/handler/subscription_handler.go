package handler

import (
	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SubscriptionHandler struct {
	service service.SubscriptionService
}

func NewSubscriptionHandler(s service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: s}
}

// Get returns the caller's subscription
// GET /api/v1/subscription
func (h *SubscriptionHandler) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	sub, err := h.service.Get(a)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sub)
}

// Webhook receives payment gateway notifications
// POST /api/v1/webhooks/gateway
func (h *SubscriptionHandler) Webhook(c *fiber.Ctx) error {
	var n service.GatewayNotification
	if err := c.BodyParser(&n); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	sub, err := h.service.HandleGatewayNotification(&n)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"status": sub.Status})
}
