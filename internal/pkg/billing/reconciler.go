package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
)

// webhookPayload is the wire shape of an Asaas payment event.
type webhookPayload struct {
	ID      string `json:"id"`
	Event   string `json:"event"`
	Payment struct {
		ID                string  `json:"id"`
		Subscription      string  `json:"subscription"`
		Status            string  `json:"status"`
		Value             float64 `json:"value"`
		BillingType       string  `json:"billingType"`
		ExternalReference string  `json:"externalReference"`
	} `json:"payment"`
}

// ProcessWebhook reconciles one authenticated gateway delivery into local
// Payment and Subscription state. Delivery is at-least-once and possibly out
// of order; safety comes from the event dedup key, the payment idempotency
// key and the monotone status ordering, not from locks. Steps that mutate
// state run inside one transaction so readers never observe a payment
// updated without its subscription.
func (s *Service) ProcessWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	_ = ctx

	var payload webhookPayload
	if err := json.Unmarshal(in.Raw, &payload); err != nil {
		return nil, NewValidationError("INVALID_PAYLOAD", "webhook body is not valid JSON")
	}

	eventID := payload.ID
	if eventID == "" {
		sum := sha256.Sum256(in.Raw)
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	created, stored, err := s.repo.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		PaymentGateway: in.Gateway,
		GatewayEventID: eventID,
		EventType:      payload.Event,
		PayloadJSON:    string(in.Raw),
		TokenValid:     in.TokenValid,
	})
	if err != nil {
		return nil, err
	}
	if !created {
		return &WebhookResult{Received: true, Duplicate: true}, nil
	}

	if !IsKnownEvent(in.Gateway, payload.Event) {
		// Acknowledged but deliberately not processed; a non-200 here would
		// put the gateway into a retry loop for events we will never handle.
		_ = s.repo.MarkWebhookProcessed(stored.ID, "")
		return &WebhookResult{Received: true, Ignored: true}, nil
	}

	if payload.Payment.ID == "" {
		_ = s.repo.MarkWebhookProcessed(stored.ID, "payment id missing from payload")
		return nil, NewValidationError("INVALID_PAYLOAD", "payment id missing from payload")
	}

	next, ok := statusForEvent(in.Gateway, payload.Event, payload.Payment.Status)
	if !ok {
		log.Warnf("webhook: unmapped status %q for payment %s, ignoring", payload.Payment.Status, payload.Payment.ID)
		_ = s.repo.MarkWebhookProcessed(stored.ID, fmt.Sprintf("unmapped gateway status %q", payload.Payment.Status))
		return &WebhookResult{Received: true, Ignored: true, Anomaly: true}, nil
	}

	var outcome reconcileOutcome
	err = s.repo.Transact(func(tx Repository) error {
		var txErr error
		outcome, txErr = reconcilePayment(tx, in.Gateway, &payload, next)
		return txErr
	})
	if err != nil {
		_ = s.repo.MarkWebhookProcessed(stored.ID, err.Error())
		return nil, err
	}

	_ = s.repo.MarkWebhookProcessed(stored.ID, outcome.note)
	return &WebhookResult{Received: true, Ignored: outcome.note != "", Anomaly: outcome.anomaly}, nil
}

// reconcileOutcome reports why a delivery was not applied. The note is
// non-empty for deliberate skips; anomaly marks the skips that indicate
// out-of-order or malformed gateway traffic.
type reconcileOutcome struct {
	note    string
	anomaly bool
}

// reconcilePayment applies one status transition inside a transaction.
func reconcilePayment(tx Repository, gateway string, payload *webhookPayload, next string) (reconcileOutcome, error) {
	payment, err := tx.GetPaymentByExternalID(gateway, payload.Payment.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return reconcileOutcome{}, err
		}
		payment, err = createFirstSeenPayment(tx, gateway, payload)
		if err != nil {
			return reconcileOutcome{}, err
		}
	}

	current := payment.Status
	if next == current {
		return reconcileOutcome{note: fmt.Sprintf("payment %s already %s", payload.Payment.ID, current)}, nil
	}
	if IsStatusRegression(current, next) {
		// Out-of-order delivery: a confirmed payment must never fall back to
		// pending. Log with the external id as correlation key and move on.
		log.Warnf("webhook: ignoring status regression %s -> %s for payment %s",
			current, next, payload.Payment.ID)
		return reconcileOutcome{
			note:    fmt.Sprintf("ignored status regression %s -> %s", current, next),
			anomaly: true,
		}, nil
	}

	settling := entersSettledBand(current, next)
	payment.Status = next
	if settling && payment.PaidAt == nil {
		now := time.Now()
		payment.PaidAt = &now
	}
	if err := tx.SavePayment(payment); err != nil {
		return reconcileOutcome{}, err
	}

	sub, err := linkedSubscription(tx, gateway, payment, payload)
	if err != nil || sub == nil {
		return reconcileOutcome{}, err
	}

	switch {
	case settling:
		// Extend from the previous period end, not from now, so a
		// late-processed webhook does not drift the renewal date.
		base := sub.CurrentPeriodEnd
		sub.CurrentPeriodStart = base
		sub.CurrentPeriodEnd = NextPeriodEnd(base, sub.BillingInterval)
		sub.Status = models.SubscriptionStatusActive
	case marksPastDue(next):
		// Grace policy: flag past_due but leave the period and access alone;
		// the expiration sweep revokes after the grace window.
		if sub.Status == models.SubscriptionStatusActive || sub.Status == models.SubscriptionStatusTrialing {
			sub.Status = models.SubscriptionStatusPastDue
		} else {
			return reconcileOutcome{}, nil
		}
	default:
		return reconcileOutcome{}, nil
	}
	return reconcileOutcome{}, tx.SaveSubscription(sub)
}

// createFirstSeenPayment persists a gateway-initiated payment we have no
// local record for. It starts at pending so the incoming status transition
// runs through the same monotone path as checkout-created payments.
func createFirstSeenPayment(tx Repository, gateway string, payload *webhookPayload) (*models.Payment, error) {
	payment := &models.Payment{
		PublicID:          uuid.NewString(),
		AmountCentavos:    int64(payload.Payment.Value*100 + 0.5),
		Currency:          "BRL",
		Status:            models.PaymentStatusPending,
		Type:              models.PaymentTypeOneTime,
		PaymentMethod:     paymentMethodFromBillingType(payload.Payment.BillingType),
		PaymentGateway:    gateway,
		ExternalPaymentID: payload.Payment.ID,
	}

	if payload.Payment.Subscription != "" {
		sub, err := tx.GetSubscriptionByExternalID(gateway, payload.Payment.Subscription)
		if err == nil {
			payment.Type = models.PaymentTypeSubscription
			payment.SubscriptionID = &sub.ID
			payment.OwnerType = sub.OwnerType
			payment.OwnerID = sub.OwnerID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if _, err := tx.CreatePaymentIfNotExists(payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// linkedSubscription resolves the subscription a payment settles, preferring
// the local link set at checkout and falling back to the gateway's
// subscription reference.
func linkedSubscription(tx Repository, gateway string, payment *models.Payment, payload *webhookPayload) (*models.Subscription, error) {
	if payment.SubscriptionID != nil {
		sub, err := tx.GetSubscriptionByID(*payment.SubscriptionID)
		if err != nil {
			return nil, err
		}
		return sub, nil
	}
	if payload.Payment.Subscription == "" {
		return nil, nil
	}
	sub, err := tx.GetSubscriptionByExternalID(gateway, payload.Payment.Subscription)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	payment.SubscriptionID = &sub.ID
	if err := tx.SavePayment(payment); err != nil {
		return nil, err
	}
	return sub, nil
}

// NextPeriodEnd advances a period end by exactly one billing interval.
func NextPeriodEnd(base time.Time, interval string) time.Time {
	if interval == models.BillingIntervalYear {
		return base.AddDate(1, 0, 0)
	}
	return base.AddDate(0, 1, 0)
}

func paymentMethodFromBillingType(billingType string) string {
	switch billingType {
	case "PIX":
		return models.PaymentMethodPix
	case "CREDIT_CARD":
		return models.PaymentMethodCreditCard
	case "BOLETO":
		return models.PaymentMethodBoleto
	default:
		return ""
	}
}
