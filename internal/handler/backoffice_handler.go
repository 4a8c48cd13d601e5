package handler

import (
	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

// BackofficeHandler serves platform admins
type BackofficeHandler struct {
	service service.CompanyService
}

func NewBackofficeHandler(s service.CompanyService) *BackofficeHandler {
	return &BackofficeHandler{service: s}
}

// ListCompanies
// GET /api/v1/admin/companies
func (h *BackofficeHandler) ListCompanies(c *fiber.Ctx) error {
	companies, err := h.service.List()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch companies"})
	}
	return c.JSON(companies)
}

// GetCompany
// GET /api/v1/admin/companies/:id
func (h *BackofficeHandler) GetCompany(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid company ID"})
	}
	company, err := h.service.Get(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(company)
}

// Activate
// POST /api/v1/admin/companies/:id/activate
func (h *BackofficeHandler) Activate(c *fiber.Ctx) error {
	return h.setActive(c, true)
}

// Deactivate
// POST /api/v1/admin/companies/:id/deactivate
func (h *BackofficeHandler) Deactivate(c *fiber.Ctx) error {
	return h.setActive(c, false)
}

func (h *BackofficeHandler) setActive(c *fiber.Ctx, active bool) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid company ID"})
	}
	company, err := h.service.SetActive(a, id, active)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Company updated", "data": company})
}
