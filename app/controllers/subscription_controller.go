package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ninho-app/ninho/app/models"
	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/database"
	"github.com/ninho-app/ninho/internal/pkg/entitlements"
	"github.com/ninho-app/ninho/internal/pkg/ownercontext"
)

// HandleOnboardingComplete is called once the owner finishes profile setup.
// Grants the configured trial when one applies; otherwise it is a no-op and
// safe to call again.
func HandleOnboardingComplete(c *fiber.Ctx) error {
	owner := ownercontext.Get(c)
	svc := billing.NewServiceFromDB(database.GetDB(), nil)
	sub, err := svc.CompleteOnboarding(c.Context(), owner.OwnerType, owner.OwnerID)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(subscriptionResponse(sub))
}

// HandleCancelSubscription flags the subscription to lapse at period end.
// Access continues until then; the expiration sweep finishes the job.
func HandleCancelSubscription(c *fiber.Ctx) error {
	owner := ownercontext.Get(c)
	svc := billing.NewServiceFromDB(database.GetDB(), nil)
	sub, err := svc.RequestCancellation(c.Context(), owner.OwnerType, owner.OwnerID)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(subscriptionResponse(sub))
}

// HandleCurrentSubscription returns the owner's subscription plus the
// resolved capability set. Owners without a row get a free subscription
// provisioned on the spot.
func HandleCurrentSubscription(c *fiber.Ctx) error {
	owner := ownercontext.Get(c)
	svc := billing.NewServiceFromDB(database.GetDB(), nil)
	sub, err := svc.CurrentSubscription(c.Context(), owner.OwnerType, owner.OwnerID)
	if err != nil {
		return respondBillingError(c, err)
	}
	return c.JSON(subscriptionResponse(sub))
}

func subscriptionResponse(sub *models.Subscription) fiber.Map {
	return fiber.Map{
		"subscription": sub,
		"capabilities": entitlements.Resolve(sub),
	}
}
