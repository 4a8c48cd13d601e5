package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errNoCompany = errors.New("no company in request")

func companyIDFromLocals(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("company_id").(string)
	if !ok {
		return uuid.Nil, errNoCompany
	}
	return uuid.Parse(raw)
}
