package models

import "time"

const (
	PaymentStatusPending              = "pending"
	PaymentStatusProcessing           = "processing"
	PaymentStatusConfirmed            = "confirmed"
	PaymentStatusPaid                 = "paid"
	PaymentStatusFailed               = "failed"
	PaymentStatusCanceled             = "canceled"
	PaymentStatusRefunded             = "refunded"
	PaymentStatusPartiallyRefunded    = "partially_refunded"
	PaymentStatusOverdue              = "overdue"
	PaymentStatusChargeback           = "chargeback"
	PaymentStatusAwaitingRiskAnalysis = "awaiting_risk_analysis"
)

const (
	PaymentTypeSubscription = "subscription"
	PaymentTypeOneTime      = "one_time"
	PaymentTypeRefund       = "refund"
	PaymentTypeAdjustment   = "adjustment"
)

const (
	PaymentMethodPix        = "pix"
	PaymentMethodCreditCard = "credit_card"
	PaymentMethodBoleto     = "boleto"
)

// Payment mirrors one gateway charge. The (payment_gateway,
// external_payment_id) unique key is the idempotency key for webhook
// processing: concurrent create-if-absent calls converge to one row.
type Payment struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	PublicID          string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"public_id"`
	OwnerType         string     `gorm:"type:varchar(16);not null;index:idx_payments_owner,priority:1" json:"owner_type"`
	OwnerID           uint       `gorm:"not null;index:idx_payments_owner,priority:2" json:"owner_id"`
	SubscriptionID    *uint      `gorm:"default:null;index" json:"subscription_id,omitempty"`
	AmountCentavos    int64      `gorm:"not null" json:"amount_centavos"`
	Currency          string     `gorm:"type:varchar(3);not null;default:'BRL'" json:"currency"`
	Status            string     `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	Type              string     `gorm:"type:varchar(20);not null;default:'subscription'" json:"type"`
	PaymentMethod     string     `gorm:"type:varchar(20);not null;default:''" json:"payment_method"`
	PaymentGateway    string     `gorm:"type:varchar(20);not null;index:ux_payments_gateway_external,unique,priority:1" json:"payment_gateway"`
	ExternalPaymentID string     `gorm:"type:varchar(191);not null;index:ux_payments_gateway_external,unique,priority:2" json:"external_payment_id"`
	PaidAt            *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	MetadataJSON      string     `gorm:"type:longtext" json:"metadata_json"`
	CreatedAt         time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsSettled reports whether the payment reached a confirmed-or-better state.
func (p *Payment) IsSettled() bool {
	switch p.Status {
	case PaymentStatusConfirmed, PaymentStatusPaid, PaymentStatusRefunded,
		PaymentStatusPartiallyRefunded, PaymentStatusChargeback:
		return true
	default:
		return false
	}
}
