package controllers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/database"
	"github.com/ninho-app/ninho/internal/pkg/ownercontext"
)

var validate = validator.New()

type couponValidateRequest struct {
	Code            string `json:"code" validate:"required,max=64"`
	PlanID          string `json:"planId" validate:"required"`
	BillingInterval string `json:"billingInterval" validate:"required,oneof=month year"`
}

// HandleCouponValidate prices a coupon against a plan without consuming it.
// The same checks run again inside checkout, so a coupon that validates here
// can still be rejected later if its usage caps fill up in between.
func HandleCouponValidate(c *fiber.Ctx) error {
	var req couponValidateRequest
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
	svc := billing.NewServiceFromDB(database.GetDB(), nil)
	result, err := svc.ValidateCoupon(c.Context(), billing.CouponValidationInput{
		Code:            req.Code,
		PlanID:          req.PlanID,
		BillingInterval: req.BillingInterval,
		OwnerType:       owner.OwnerType,
		OwnerID:         owner.OwnerID,
		Role:            owner.Role,
		Email:           owner.Email,
	})
	if err != nil {
		return respondBillingError(c, err)
	}

	if !result.Valid {
		return c.Status(fiber.StatusBadRequest).JSON(couponValidationBody(result))
	}
	return c.JSON(couponValidationBody(result))
}

// couponValidationBody shapes the wire response. Amounts are integer centavos.
func couponValidationBody(result *billing.CouponValidation) fiber.Map {
	if !result.Valid {
		return fiber.Map{
			"isValid":   false,
			"message":   result.Message,
			"errorCode": result.ErrorCode,
		}
	}
	return fiber.Map{
		"isValid":        true,
		"discountAmount": result.DiscountCentavos,
		"originalAmount": result.OriginalCentavos,
		"finalAmount":    result.FinalCentavos,
	}
}
