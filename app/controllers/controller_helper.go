package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ninho-app/ninho/internal/pkg/billing"
)

// respondBillingError maps the billing error taxonomy onto HTTP. Clients get
// the stable code plus a safe message; raw gateway or DB text never leaves
// the process.
func respondBillingError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal error"

	switch billing.KindOf(err) {
	case billing.KindValidation:
		status = fiber.StatusBadRequest
	case billing.KindAuthorization:
		status = fiber.StatusUnauthorized
	case billing.KindNotFound:
		status = fiber.StatusNotFound
	case billing.KindConflict:
		status = fiber.StatusConflict
	case billing.KindGateway:
		status = fiber.StatusBadGateway
		message = "payment gateway unavailable"
	}

	if status != fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		var be *billing.Error
		if errors.As(err, &be) {
			message = be.Message
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"error":     message,
		"errorCode": billing.CodeOf(err),
	})
}
