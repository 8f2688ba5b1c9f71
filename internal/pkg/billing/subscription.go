package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
)

// EnsureFreeSubscription provisions the owner's single subscription row on
// the free tier. Idempotent: the unique owner key makes concurrent calls
// converge and an existing row (free or paid) is returned untouched.
func (s *Service) EnsureFreeSubscription(ctx context.Context, ownerType string, ownerID uint) (*models.Subscription, error) {
	_ = ctx
	if !models.ValidOwnerType(ownerType) || ownerID == 0 {
		return nil, NewValidationError("INVALID_OWNER", "owner_type and owner_id are required")
	}

	free := models.FreePlanFor(ownerType)
	now := time.Now()
	sub := &models.Subscription{
		OwnerType:          ownerType,
		OwnerID:            ownerID,
		PlanID:             free.ID,
		Status:             models.SubscriptionStatusActive,
		BillingInterval:    models.BillingIntervalMonth,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   models.FarFutureDate,
	}
	if _, err := s.repo.CreateSubscriptionIfNotExists(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CompleteOnboarding upgrades a freshly onboarded owner to the paid plan's
// trial when trial config enables it. Re-invoking is a no-op once the owner
// holds a paid plan or has ever consumed a trial, so an elapsed trial is
// never reset.
func (s *Service) CompleteOnboarding(ctx context.Context, ownerType string, ownerID uint) (*models.Subscription, error) {
	sub, err := s.EnsureFreeSubscription(ctx, ownerType, ownerID)
	if err != nil {
		return nil, err
	}

	if sub.Plan().IsPaid() || sub.TrialEndsAt != nil {
		return sub, nil
	}

	// Trial config is read per call, never cached process-wide.
	cfg, err := s.repo.LoadTrialConfig(ownerType)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled || cfg.Days <= 0 {
		return sub, nil
	}

	paid := models.PaidPlanFor(ownerType)
	now := time.Now()
	trialEnd := now.AddDate(0, 0, cfg.Days)

	sub.PlanID = paid.ID
	sub.Status = models.SubscriptionStatusTrialing
	sub.BillingInterval = models.BillingIntervalMonth
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = trialEnd
	sub.TrialEndsAt = &trialEnd
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// RequestCancellation flags the owner's subscription for cancellation at the
// end of the current period. Status does not change here: the owner already
// paid for the running period, so access holds until the expiration sweep.
func (s *Service) RequestCancellation(ctx context.Context, ownerType string, ownerID uint) (*models.Subscription, error) {
	_ = ctx
	sub, err := s.repo.GetSubscriptionByOwner(ownerType, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("SUBSCRIPTION_NOT_FOUND", "no subscription for this owner")
		}
		return nil, err
	}

	if sub.IsTerminal() {
		return nil, NewConflictError("SUBSCRIPTION_ALREADY_ENDED", "subscription is already canceled or expired")
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}

	now := time.Now()
	sub.CancelAtPeriodEnd = true
	sub.CanceledAt = &now
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CurrentSubscription returns the owner's subscription row, provisioning the
// free tier on first sight so collaborators always get a snapshot.
func (s *Service) CurrentSubscription(ctx context.Context, ownerType string, ownerID uint) (*models.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByOwner(ownerType, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.EnsureFreeSubscription(ctx, ownerType, ownerID)
		}
		return nil, err
	}
	return sub, nil
}

// StartCheckout prices a paid plan (applying an optional coupon), creates
// the gateway charge and the local PENDING payment, and stages the
// subscription row for activation by the webhook reconciler.
func (s *Service) StartCheckout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	plan := models.FindPlan(in.PlanID)
	if plan == nil {
		return nil, NewNotFoundError("PLAN_NOT_FOUND", "unknown plan")
	}
	if plan.OwnerType != in.OwnerType {
		return nil, NewValidationError("PLAN_OWNER_MISMATCH", "plan does not belong to this owner type")
	}
	if !plan.IsPaid() {
		return nil, NewValidationError("PLAN_NOT_PURCHASABLE", "free plans are not purchasable")
	}
	if !models.ValidBillingInterval(in.BillingInterval) {
		return nil, NewValidationError("INVALID_BILLING_INTERVAL", "billing interval must be month or year")
	}

	amount := plan.Price(in.BillingInterval)
	var coupon *models.Coupon
	var discount int64
	if in.CouponCode != "" {
		validation, err := s.ValidateCoupon(ctx, CouponValidationInput{
			Code:            in.CouponCode,
			PlanID:          in.PlanID,
			BillingInterval: in.BillingInterval,
			OwnerType:       in.OwnerType,
			OwnerID:         in.OwnerID,
			Role:            in.Role,
			Email:           in.CustomerEmail,
		})
		if err != nil {
			return nil, err
		}
		if !validation.Valid {
			return nil, NewConflictError(validation.ErrorCode, validation.Message)
		}
		coupon = validation.Coupon
		discount = validation.DiscountCentavos
		amount = validation.FinalCentavos
	}

	sub, err := s.EnsureFreeSubscription(ctx, in.OwnerType, in.OwnerID)
	if err != nil {
		return nil, err
	}

	charge, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		OwnerType:         in.OwnerType,
		OwnerID:           in.OwnerID,
		CustomerName:      in.CustomerName,
		CustomerEmail:     in.CustomerEmail,
		AmountCentavos:    amount,
		BillingType:       in.PaymentMethod,
		Description:       fmt.Sprintf("%s (%s)", plan.ID, in.BillingInterval),
		ExternalReference: fmt.Sprintf("%s:%d", in.OwnerType, in.OwnerID),
		DueDate:           time.Now().AddDate(0, 0, 3),
	})
	if err != nil {
		return nil, err
	}

	status := models.PaymentStatusPending
	if mapped, ok := MapGatewayStatus(s.gateway.Name(), charge.Status); ok {
		status = mapped
	}

	payment := &models.Payment{
		PublicID:          uuid.NewString(),
		OwnerType:         in.OwnerType,
		OwnerID:           in.OwnerID,
		SubscriptionID:    &sub.ID,
		AmountCentavos:    amount,
		Currency:          "BRL",
		Status:            status,
		Type:              models.PaymentTypeSubscription,
		PaymentMethod:     in.PaymentMethod,
		PaymentGateway:    s.gateway.Name(),
		ExternalPaymentID: charge.ExternalID,
	}
	if _, err := s.repo.CreatePaymentIfNotExists(payment); err != nil {
		return nil, err
	}

	now := time.Now()
	paidPeriodRunning := sub.IsEntitling() && sub.Plan().IsPaid()
	sub.PlanID = plan.ID
	sub.BillingInterval = in.BillingInterval
	sub.DiscountCentavos = discount
	sub.PaymentGateway = s.gateway.Name()
	if coupon != nil {
		sub.AppliedCouponID = &coupon.ID
	}
	if !paidPeriodRunning {
		// First purchase (or re-purchase after a lapse): the period opens
		// empty and the reconciler extends it from here on confirmation.
		sub.Status = models.SubscriptionStatusIncomplete
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = now
	}
	if err := s.repo.SaveSubscription(sub); err != nil {
		return nil, err
	}

	if coupon != nil {
		if err := s.RecordCouponUsage(ctx, coupon, in.OwnerType, in.OwnerID, &sub.ID); err != nil {
			return nil, err
		}
	}

	return &CheckoutResult{Payment: payment, Subscription: sub, InvoiceURL: charge.InvoiceURL}, nil
}

// PixQRCodeForPayment fetches the PIX payload for one of the owner's pending
// payments.
func (s *Service) PixQRCodeForPayment(ctx context.Context, ownerType string, ownerID uint, publicID string) (*PixQRCode, error) {
	payment, err := s.repo.GetPaymentByPublicID(publicID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("PAYMENT_NOT_FOUND", "unknown payment")
		}
		return nil, err
	}
	if payment.OwnerType != ownerType || payment.OwnerID != ownerID {
		return nil, NewNotFoundError("PAYMENT_NOT_FOUND", "unknown payment")
	}
	return s.gateway.GetPixQRCode(ctx, payment.ExternalPaymentID)
}
