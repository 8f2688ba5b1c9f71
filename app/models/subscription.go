package models

import "time"

const (
	SubscriptionStatusIncomplete = "incomplete"
	SubscriptionStatusTrialing   = "trialing"
	SubscriptionStatusActive     = "active"
	SubscriptionStatusPastDue    = "past_due"
	SubscriptionStatusCanceled   = "canceled"
	SubscriptionStatusExpired    = "expired"
)

// FarFutureDate is the period end used for free-tier rows, which never lapse.
// The period columns must stay DATETIME; MySQL TIMESTAMP cannot hold this value.
var FarFutureDate = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Subscription is the single billing row per owner. Rows are never deleted;
// cancellation and expiration are status transitions so payment history stays
// attributable. The (owner_type, owner_id) unique key is what serializes
// concurrent provisioning, not application locking.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	OwnerType              string     `gorm:"type:varchar(16);not null;index:ux_subscriptions_owner,unique,priority:1" json:"owner_type"`
	OwnerID                uint       `gorm:"not null;index:ux_subscriptions_owner,unique,priority:2" json:"owner_id"`
	PlanID                 string     `gorm:"type:varchar(50);not null;default:'';index" json:"plan_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'incomplete';index" json:"status"`
	BillingInterval        string     `gorm:"type:varchar(16);not null;default:'month'" json:"billing_interval"`
	CurrentPeriodStart     time.Time  `gorm:"type:datetime;not null" json:"current_period_start"`
	CurrentPeriodEnd       time.Time  `gorm:"type:datetime;not null;index" json:"current_period_end"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	CanceledAt             *time.Time `gorm:"type:datetime;default:null" json:"canceled_at,omitempty"`
	TrialEndsAt            *time.Time `gorm:"type:datetime;default:null" json:"trial_ends_at,omitempty"`
	DiscountCentavos       int64      `gorm:"not null;default:0" json:"discount_centavos"`
	AppliedCouponID        *uint      `gorm:"default:null" json:"applied_coupon_id,omitempty"`
	ExternalSubscriptionID string     `gorm:"type:varchar(191);not null;default:'';index" json:"external_subscription_id"`
	PaymentGateway         string     `gorm:"type:varchar(20);not null;default:'';index" json:"payment_gateway"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Plan resolves the catalog entry for this row. Unknown plan IDs resolve to
// the owner type's free plan so a stale row can never grant paid access.
func (s *Subscription) Plan() *Plan {
	if p := FindPlan(s.PlanID); p != nil {
		return p
	}
	return FreePlanFor(s.OwnerType)
}

// IsEntitling reports whether the status grants the plan's own capabilities.
// past_due entitles on purpose: access is only revoked by the expiration
// sweep once the grace period has run out.
func (s *Subscription) IsEntitling() bool {
	switch s.Status {
	case SubscriptionStatusActive, SubscriptionStatusTrialing, SubscriptionStatusPastDue:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the row sits in a terminal status. Terminal rows
// are re-entered by upserting the same owner-keyed row, never by a new row.
func (s *Subscription) IsTerminal() bool {
	return s.Status == SubscriptionStatusCanceled || s.Status == SubscriptionStatusExpired
}
