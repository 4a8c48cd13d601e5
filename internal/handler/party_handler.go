package handler

import (
	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PartyHandler serves /customers or /suppliers, depending on its service
type PartyHandler struct {
	service service.PartyService
	label   string
}

func NewCustomerHandler(s service.PartyService) *PartyHandler {
	return &PartyHandler{service: s, label: "Customer"}
}

func NewSupplierHandler(s service.PartyService) *PartyHandler {
	return &PartyHandler{service: s, label: "Supplier"}
}

// List
// GET /api/v1/customers?search=
func (h *PartyHandler) List(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	parties, err := h.service.List(a, c.Query("search"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(parties)
}

func (h *PartyHandler) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid " + h.label + " ID"})
	}
	p, err := h.service.Get(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(p)
}

func (h *PartyHandler) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var req service.PartyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	p, err := h.service.Create(a, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": h.label + " created successfully", "data": p})
}

func (h *PartyHandler) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid " + h.label + " ID"})
	}
	var req service.PartyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	p, err := h.service.Update(a, id, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": h.label + " updated successfully", "data": p})
}

func (h *PartyHandler) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid " + h.label + " ID"})
	}
	if err := h.service.Delete(a, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": h.label + " deleted successfully"})
}

// Ledger returns the party's installments with open and paid totals
// GET /api/v1/customers/:id/ledger
func (h *PartyHandler) Ledger(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid " + h.label + " ID"})
	}
	ledger, err := h.service.Ledger(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(ledger)
}
