package handler

import (
	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

func (h *SaleHandler) parseDeal(c *fiber.Ctx) (service.Actor, *service.DealRequest, error) {
	a, err := actor(c)
	if err != nil {
		return a, nil, err
	}
	var req service.DealRequest
	if err := c.BodyParser(&req); err != nil {
		return a, nil, fiber.NewError(400, "Invalid JSON")
	}
	return a, &req, nil
}

func (h *SaleHandler) parseReschedule(c *fiber.Ctx) (*service.RescheduleRequest, error) {
	var req service.RescheduleRequest
	if len(c.Body()) == 0 {
		return &req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(400, "Invalid JSON")
	}
	return &req, nil
}

// failOrFiber lets parse errors carry their own status
func failOrFiber(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}
	return fail(c, err)
}

// CreateSale splits a sale into installments
// POST /api/v1/sales
func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	a, req, err := h.parseDeal(c)
	if err != nil {
		return failOrFiber(c, err)
	}
	sale, err := h.service.CreateSale(a, req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale created successfully", "data": sale})
}

// CreatePurchase splits a purchase into installments
// POST /api/v1/purchases
func (h *SaleHandler) CreatePurchase(c *fiber.Ctx) error {
	a, req, err := h.parseDeal(c)
	if err != nil {
		return failOrFiber(c, err)
	}
	purchase, err := h.service.CreatePurchase(a, req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase created successfully", "data": purchase})
}

// ListSales
// GET /api/v1/sales?party_id=&from=&to=
func (h *SaleHandler) ListSales(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var q service.DealQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid query"})
	}
	sales, err := h.service.ListSales(a, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sales)
}

// ListPurchases
// GET /api/v1/purchases?party_id=&from=&to=
func (h *SaleHandler) ListPurchases(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var q service.DealQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid query"})
	}
	purchases, err := h.service.ListPurchases(a, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(purchases)
}

// GetSale returns the sale with its installments
// GET /api/v1/sales/:id
func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	sale, err := h.service.GetSale(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sale)
}

// GetPurchase returns the purchase with its installments
// GET /api/v1/purchases/:id
func (h *SaleHandler) GetPurchase(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	purchase, err := h.service.GetPurchase(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(purchase)
}

// RescheduleSale
// PUT /api/v1/sales/:id/schedule
func (h *SaleHandler) RescheduleSale(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	req, err := h.parseReschedule(c)
	if err != nil {
		return failOrFiber(c, err)
	}
	sale, err := h.service.RescheduleSale(a, id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Installments rescheduled", "data": sale})
}

// ReschedulePurchase
// PUT /api/v1/purchases/:id/schedule
func (h *SaleHandler) ReschedulePurchase(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	req, err := h.parseReschedule(c)
	if err != nil {
		return failOrFiber(c, err)
	}
	purchase, err := h.service.ReschedulePurchase(a, id, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Installments rescheduled", "data": purchase})
}

// DeleteSale
// DELETE /api/v1/sales/:id
func (h *SaleHandler) DeleteSale(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	if err := h.service.DeleteSale(a, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted successfully"})
}

// DeletePurchase
// DELETE /api/v1/purchases/:id
func (h *SaleHandler) DeletePurchase(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	if err := h.service.DeletePurchase(a, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase deleted successfully"})
}
