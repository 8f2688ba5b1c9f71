package models

import (
	"strings"
	"time"
)

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// Coupon is a discount code. AllowedPlans, AllowedRoles and EmailAllowlist
// are comma-separated lists; empty means unrestricted. DiscountValue is a
// percentage for percentage coupons and centavos for fixed ones.
type Coupon struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Code                string     `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType        string     `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue       int64      `gorm:"not null" json:"discount_value"`
	AllowedPlans        string     `gorm:"type:varchar(255);not null;default:''" json:"allowed_plans"`
	AllowedRoles        string     `gorm:"type:varchar(255);not null;default:''" json:"allowed_roles"`
	MaxUsesTotal        int        `gorm:"not null;default:0" json:"max_uses_total"`
	MaxUsesPerUser      int        `gorm:"not null;default:0" json:"max_uses_per_user"`
	MinPurchaseCentavos int64      `gorm:"not null;default:0" json:"min_purchase_centavos"`
	ValidFrom           *time.Time `gorm:"type:timestamp;default:null" json:"valid_from,omitempty"`
	ValidUntil          *time.Time `gorm:"type:timestamp;default:null" json:"valid_until,omitempty"`
	EmailAllowlist      string     `gorm:"type:text" json:"email_allowlist"`
	IsActive            bool       `gorm:"default:true;index" json:"is_active"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CouponUsage is the enforcement record for per-user and global usage caps.
// One row per successful redemption.
type CouponUsage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CouponID       uint      `gorm:"not null;index:idx_coupon_usages_coupon,priority:1" json:"coupon_id"`
	OwnerType      string    `gorm:"type:varchar(16);not null" json:"owner_type"`
	OwnerID        uint      `gorm:"not null;index:idx_coupon_usages_coupon,priority:2" json:"owner_id"`
	SubscriptionID *uint     `gorm:"default:null" json:"subscription_id,omitempty"`
	UsedAt         time.Time `gorm:"autoCreateTime" json:"used_at"`
}

// NormalizeCouponCode trims and upper-cases a code for case-insensitive lookup.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AllowsPlan reports whether the coupon applies to a plan ID.
func (c *Coupon) AllowsPlan(planID string) bool {
	return listAllows(c.AllowedPlans, planID)
}

// AllowsRole reports whether the coupon applies to a user role.
func (c *Coupon) AllowsRole(role string) bool {
	return listAllows(c.AllowedRoles, role)
}

// AllowsEmail reports whether the coupon's allowlist contains the email.
// An empty allowlist allows everyone.
func (c *Coupon) AllowsEmail(email string) bool {
	return listAllows(c.EmailAllowlist, email)
}

// HasEmailAllowlist reports whether the coupon restricts by email at all.
func (c *Coupon) HasEmailAllowlist() bool {
	return strings.TrimSpace(c.EmailAllowlist) != ""
}

func listAllows(list, value string) bool {
	list = strings.TrimSpace(list)
	if list == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, item := range strings.Split(list, ",") {
		if strings.ToLower(strings.TrimSpace(item)) == needle {
			return true
		}
	}
	return false
}
