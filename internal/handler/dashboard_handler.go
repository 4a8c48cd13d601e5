package handler

import (
	"strconv"

	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetCashFlow returns money received and paid per day
// Query params: days (default 7)
func (h *DashboardHandler) GetCashFlow(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}

	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.CashFlow(a, days)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch cash flow"})
	}

	return c.JSON(fiber.Map{
		"period": len(data),
		"data":   data,
	})
}

// GetSummary returns the overview for a period, the current month by default
// Query params: from, to
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}

	stats, err := h.service.Summary(a, c.Query("from"), c.Query("to"))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(stats)
}
