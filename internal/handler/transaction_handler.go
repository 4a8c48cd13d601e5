package handler

import (
	"go-cashbook-api/internal/service"

	"github.com/gofiber/fiber/v2"
)

type TransactionHandler struct {
	service service.TransactionService
	export  service.ExportService
}

func NewTransactionHandler(s service.TransactionService, export service.ExportService) *TransactionHandler {
	return &TransactionHandler{service: s, export: export}
}

// List returns the company's ledger rows
// GET /api/v1/transactions?status=&kind=&from=&to=&customer_id=&supplier_id=&category_id=&open=&limit=&offset=
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var q service.TransactionQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid query"})
	}

	rows, err := h.service.List(a, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(rows)
}

// Get returns one row with its payments
// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	t, err := h.service.Get(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(t)
}

// Create records an ad-hoc entry
// POST /api/v1/transactions
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	t, err := h.service.Create(a, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Transaction created successfully",
		"data":    t,
	})
}

// Update edits an unpaid ad-hoc entry
// PUT /api/v1/transactions/:id
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}
	var req service.TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	t, err := h.service.Update(a, id, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Transaction updated successfully",
		"data":    t,
	})
}

// Delete removes an unpaid ad-hoc entry
// DELETE /api/v1/transactions/:id
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	if err := h.service.Delete(a, id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Transaction deleted successfully"})
}

// ConfirmPayment registers a full or partial payment
// POST /api/v1/transactions/:id/pay
func (h *TransactionHandler) ConfirmPayment(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}
	var req service.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	t, err := h.service.ConfirmPayment(a, id, &req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Payment confirmed",
		"data":    t,
	})
}

// CancelPayment undoes every payment of the row
// POST /api/v1/transactions/:id/cancel-payment
func (h *TransactionHandler) CancelPayment(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	id, err := paramID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid transaction ID"})
	}

	t, err := h.service.CancelPayment(a, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Payment cancelled",
		"data":    t,
	})
}

// Export downloads the filtered rows as XLSX
// GET /api/v1/transactions/export
func (h *TransactionHandler) Export(c *fiber.Ctx) error {
	a, err := actor(c)
	if err != nil {
		return fail(c, err)
	}
	var q service.TransactionQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid query"})
	}

	buf, name, err := h.export.Transactions(a, q)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}
