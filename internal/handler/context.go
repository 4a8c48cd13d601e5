package handler

import (
	"errors"

	"go-cashbook-api/internal/installment"
	"go-cashbook-api/internal/service"
	"go-cashbook-api/pkg/jwt"
	"go-cashbook-api/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var errNoActor = errors.New("unauthorized")

// actor builds the service Actor from the locals set by RequireAuth
func actor(c *fiber.Ctx) (service.Actor, error) {
	userID, _ := c.Locals("user_id").(string)
	companyID, _ := c.Locals("company_id").(string)

	uid, err := uuid.Parse(userID)
	if err != nil {
		return service.Actor{}, errNoActor
	}
	cid, err := uuid.Parse(companyID)
	if err != nil {
		return service.Actor{}, errNoActor
	}

	name, _ := c.Locals("user_name").(string)
	email, _ := c.Locals("user_email").(string)
	return service.Actor{UserID: uid, CompanyID: cid, Name: name, Email: email}, nil
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

var statusByError = []struct {
	err    error
	status int
}{
	{validator.ErrValidation, 400},
	{service.ErrInvalidID, 400},
	{service.ErrInvalidQuery, 400},
	{service.ErrInvalidKind, 400},
	{service.ErrTooManyCustomDate, 400},
	{service.ErrCategoryKindMismatch, 400},
	{service.ErrUnknownGatewayStatus, 400},
	{service.ErrRoleNotAssignable, 400},
	{service.ErrDeleteSelf, 400},
	{service.ErrWrongPassword, 400},
	{installment.ErrNonPositivePayment, 400},
	{installment.ErrNegativeInterest, 400},
	{installment.ErrInvalidCount, 400},

	{service.ErrInvalidCredentials, 401},
	{service.ErrSessionTimeout, 401},
	{service.ErrSessionReplaced, 401},
	{jwt.ErrInvalidToken, 401},
	{jwt.ErrMissingToken, 401},
	{errNoActor, 401},

	{service.ErrUserInactive, 403},
	{service.ErrCompanyInactive, 403},

	{service.ErrTransactionNotFound, 404},
	{service.ErrSaleNotFound, 404},
	{service.ErrPurchaseNotFound, 404},
	{service.ErrCustomerNotFound, 404},
	{service.ErrSupplierNotFound, 404},
	{service.ErrCategoryNotFound, 404},
	{service.ErrUserNotFound, 404},
	{service.ErrRoleNotFound, 404},
	{service.ErrSubscriptionNotFound, 404},
	{service.ErrCompanyNotFound, 404},

	{service.ErrConcurrentUpdate, 409},
	{service.ErrGroupHasPayments, 409},
	{service.ErrTransactionHasPaid, 409},
	{service.ErrInstallmentRow, 409},
	{service.ErrEmailExists, 409},
	{installment.ErrAlreadySettled, 409},
	{installment.ErrNothingToCancel, 409},
}

// statusFor maps a service error to its HTTP status; unknown errors are 500
func statusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return 500
}

// fail writes err as {"error": msg}. 500s hide the message and get logged.
func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == 500 {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.Status(500).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
