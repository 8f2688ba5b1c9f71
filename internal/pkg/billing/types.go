package billing

import (
	"context"
	"time"

	"github.com/ninho-app/ninho/app/models"
)

// Gateway is the slice of the payment processor the billing core needs.
// Implemented by internal/pkg/gateway. Remote failures surface as
// *Error with KindGateway; the core never retries synchronously.
type Gateway interface {
	Name() string
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetPixQRCode(ctx context.Context, externalPaymentID string) (*PixQRCode, error)
}

// ChargeRequest describes one charge to create at the gateway. Amounts are
// integer centavos; the adapter converts to the gateway's decimal format.
type ChargeRequest struct {
	OwnerType         string
	OwnerID           uint
	CustomerName      string
	CustomerEmail     string
	AmountCentavos    int64
	BillingType       string // pix, credit_card, boleto
	Description       string
	ExternalReference string
	DueDate           time.Time
}

// Charge is the gateway's view of a created charge. Status is the raw
// gateway vocabulary; callers translate via MapGatewayStatus.
type Charge struct {
	ExternalID  string
	Status      string
	InvoiceURL  string
	BillingType string
}

// PixQRCode is the PIX payment payload fetched for a pending charge.
type PixQRCode struct {
	EncodedImage   string `json:"encoded_image"`
	Payload        string `json:"payload"`
	ExpirationDate string `json:"expiration_date"`
}

// CheckoutInput starts a paid-plan purchase for an owner.
type CheckoutInput struct {
	OwnerType       string
	OwnerID         uint
	PlanID          string
	BillingInterval string
	PaymentMethod   string
	CouponCode      string
	CustomerName    string
	CustomerEmail   string
	Role            string
}

// CheckoutResult is what checkout initiation hands back to the caller.
type CheckoutResult struct {
	Payment      *models.Payment
	Subscription *models.Subscription
	InvoiceURL   string
}

// WebhookInput is one authenticated webhook delivery, raw.
type WebhookInput struct {
	Gateway    string
	TokenValid bool
	Raw        []byte
}

// WebhookResult reports how a delivery was handled. All outcomes are
// acknowledged with 200 so the gateway stops retrying. Anomaly marks the
// ignores worth counting separately: status regressions and gateway statuses
// we cannot map, as opposed to event types we skip on purpose.
type WebhookResult struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
	Ignored   bool `json:"ignored,omitempty"`
	Anomaly   bool `json:"anomaly,omitempty"`
}

// SweepResult reports how many rows each sweep case transitioned.
type SweepResult struct {
	Canceled   int64
	Expired    int64
	RolledOver int64
}
