package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/database"
	"github.com/ninho-app/ninho/internal/pkg/gateway"
	"github.com/ninho-app/ninho/internal/pkg/ownercontext"
)

type checkoutRequest struct {
	PlanID          string `json:"planId" validate:"required"`
	BillingInterval string `json:"billingInterval" validate:"required,oneof=month year"`
	PaymentMethod   string `json:"paymentMethod" validate:"required,oneof=pix credit_card boleto"`
	CouponCode      string `json:"couponCode" validate:"omitempty,max=64"`
}

// HandleStartCheckout creates a gateway charge for a paid plan and records
// the pending payment. The subscription only becomes entitling once the
// gateway confirms the charge through the webhook.
func HandleStartCheckout(c *fiber.Ctx) error {
	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "invalid request body",
			"errorCode": "INVALID_BODY",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"errorCode": "INVALID_BODY",
		})
	}

	owner := ownercontext.Get(c)
	svc := billing.NewServiceFromDB(database.GetDB(), gateway.NewAsaasClientFromEnv())
	result, err := svc.StartCheckout(c.Context(), billing.CheckoutInput{
		OwnerType:       owner.OwnerType,
		OwnerID:         owner.OwnerID,
		PlanID:          req.PlanID,
		BillingInterval: req.BillingInterval,
		PaymentMethod:   req.PaymentMethod,
		CouponCode:      req.CouponCode,
		CustomerName:    owner.Name,
		CustomerEmail:   owner.Email,
		Role:            owner.Role,
	})
	if err != nil {
		return respondBillingError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"payment": fiber.Map{
			"id":             result.Payment.PublicID,
			"status":         result.Payment.Status,
			"amountCentavos": result.Payment.AmountCentavos,
			"paymentMethod":  result.Payment.PaymentMethod,
		},
		"invoiceUrl": result.InvoiceURL,
	})
}

// HandlePixQRCode fetches the PIX copy-and-paste payload and QR image for a
// pending checkout. Payments of other owners read as not found.
func HandlePixQRCode(c *fiber.Ctx) error {
	owner := ownercontext.Get(c)
	svc := billing.NewServiceFromDB(database.GetDB(), gateway.NewAsaasClientFromEnv())
	qr, err := svc.PixQRCodeForPayment(c.Context(), owner.OwnerType, owner.OwnerID, c.Params("paymentID"))
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(qr)
}
