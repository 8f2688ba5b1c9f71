package billing

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
)

// Coupon validation error codes. Each check failure has its own code so the
// client can localize a precise message.
const (
	CouponNotFound    = "COUPON_NOT_FOUND"
	CouponInactive    = "COUPON_INACTIVE"
	CouponNotStarted  = "COUPON_NOT_STARTED"
	CouponExpired     = "COUPON_EXPIRED"
	PlanNotEligible   = "PLAN_NOT_ELIGIBLE"
	RoleNotEligible   = "ROLE_NOT_ELIGIBLE"
	EmailNotAllowed   = "EMAIL_NOT_ALLOWED"
	UsageLimitReached = "USAGE_LIMIT_REACHED"
	CouponExhausted   = "COUPON_EXHAUSTED"
	MinPurchaseNotMet = "MIN_PURCHASE_NOT_MET"
	CouponPlanUnknown = "PLAN_NOT_FOUND"
	CouponBadInterval = "INVALID_BILLING_INTERVAL"
)

// CouponValidationInput carries everything the engine needs to price a code.
// Owner fields are optional: anonymous price previews skip the per-user and
// email checks that need them.
type CouponValidationInput struct {
	Code            string
	PlanID          string
	BillingInterval string
	OwnerType       string
	OwnerID         uint
	Role            string
	Email           string
}

// CouponValidation is the outcome of one validation pass. Amounts are
// centavos. Valid=false carries the first failing check's code.
type CouponValidation struct {
	Valid            bool
	Coupon           *models.Coupon
	OriginalCentavos int64
	DiscountCentavos int64
	FinalCentavos    int64
	ErrorCode        string
	Message          string
}

// ValidateCoupon runs the eligibility checks in strict order and computes
// the discounted price. It never writes: live price previews may call it
// repeatedly. Usage is recorded separately by RecordCouponUsage at checkout.
func (s *Service) ValidateCoupon(ctx context.Context, in CouponValidationInput) (*CouponValidation, error) {
	_ = ctx

	plan := models.FindPlan(in.PlanID)
	if plan == nil {
		return invalidCoupon(CouponPlanUnknown, "unknown plan"), nil
	}
	if !models.ValidBillingInterval(in.BillingInterval) {
		return invalidCoupon(CouponBadInterval, "unknown billing interval"), nil
	}
	amount := plan.Price(in.BillingInterval)

	coupon, err := s.repo.GetCouponByCode(in.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidCoupon(CouponNotFound, "coupon does not exist"), nil
		}
		return nil, err
	}
	if !coupon.IsActive {
		return invalidCoupon(CouponInactive, "coupon is no longer active"), nil
	}

	now := time.Now()
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return invalidCoupon(CouponNotStarted, "coupon is not active yet"), nil
	}
	if coupon.ValidUntil != nil && now.After(*coupon.ValidUntil) {
		return invalidCoupon(CouponExpired, "coupon has expired"), nil
	}

	if !coupon.AllowsPlan(in.PlanID) {
		return invalidCoupon(PlanNotEligible, "coupon does not apply to this plan"), nil
	}
	if in.Role != "" && !coupon.AllowsRole(in.Role) {
		return invalidCoupon(RoleNotEligible, "coupon does not apply to this account type"), nil
	}

	if coupon.HasEmailAllowlist() && !coupon.AllowsEmail(in.Email) {
		return invalidCoupon(EmailNotAllowed, "coupon is restricted to specific accounts"), nil
	}

	if coupon.MaxUsesPerUser > 0 && in.OwnerID != 0 {
		used, err := s.repo.CountCouponUsagesByOwner(coupon.ID, in.OwnerType, in.OwnerID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.MaxUsesPerUser) {
			return invalidCoupon(UsageLimitReached, "coupon usage limit reached for this account"), nil
		}
	}

	if coupon.MaxUsesTotal > 0 {
		used, err := s.repo.CountCouponUsages(coupon.ID)
		if err != nil {
			return nil, err
		}
		if used >= int64(coupon.MaxUsesTotal) {
			return invalidCoupon(CouponExhausted, "coupon has been fully redeemed"), nil
		}
	}

	if coupon.MinPurchaseCentavos > 0 && amount < coupon.MinPurchaseCentavos {
		return invalidCoupon(MinPurchaseNotMet, "purchase amount is below the coupon minimum"), nil
	}

	discount := ComputeDiscount(coupon, amount)
	return &CouponValidation{
		Valid:            true,
		Coupon:           coupon,
		OriginalCentavos: amount,
		DiscountCentavos: discount,
		FinalCentavos:    amount - discount,
	}, nil
}

// ComputeDiscount applies the coupon to an amount in centavos. Percentage
// discounts floor; both kinds are capped at the amount so the final price
// can never go negative.
func ComputeDiscount(coupon *models.Coupon, amountCentavos int64) int64 {
	var discount int64
	switch coupon.DiscountType {
	case models.DiscountTypePercentage:
		discount = amountCentavos * coupon.DiscountValue / 100
	case models.DiscountTypeFixed:
		discount = coupon.DiscountValue
	}
	if discount > amountCentavos {
		discount = amountCentavos
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// RecordCouponUsage writes the enforcement record for a redemption. Called
// exactly once per successful checkout, never by validation.
func (s *Service) RecordCouponUsage(ctx context.Context, coupon *models.Coupon, ownerType string, ownerID uint, subscriptionID *uint) error {
	_ = ctx
	return s.repo.CreateCouponUsage(&models.CouponUsage{
		CouponID:       coupon.ID,
		OwnerType:      ownerType,
		OwnerID:        ownerID,
		SubscriptionID: subscriptionID,
	})
}

func invalidCoupon(code, message string) *CouponValidation {
	return &CouponValidation{Valid: false, ErrorCode: code, Message: message}
}
