package billing

import (
	"strings"

	"github.com/ninho-app/ninho/app/models"
)

// GatewayAsaas is the only payment gateway currently integrated.
const GatewayAsaas = "asaas"

// asaasStatusMap is the fixed translation table from Asaas payment status
// vocabulary to the internal payment status enum.
var asaasStatusMap = map[string]string{
	"PENDING":                   models.PaymentStatusPending,
	"AWAITING_RISK_ANALYSIS":    models.PaymentStatusAwaitingRiskAnalysis,
	"APPROVED_BY_RISK_ANALYSIS": models.PaymentStatusProcessing,
	"REPROVED_BY_RISK_ANALYSIS": models.PaymentStatusFailed,
	"CONFIRMED":                 models.PaymentStatusConfirmed,
	"RECEIVED":                  models.PaymentStatusPaid,
	"RECEIVED_IN_CASH":          models.PaymentStatusPaid,
	"OVERDUE":                   models.PaymentStatusOverdue,
	"REFUNDED":                  models.PaymentStatusRefunded,
	"PARTIALLY_REFUNDED":        models.PaymentStatusPartiallyRefunded,
	"REFUND_REQUESTED":          models.PaymentStatusPartiallyRefunded,
	"CHARGEBACK_REQUESTED":      models.PaymentStatusChargeback,
	"CHARGEBACK_DISPUTE":        models.PaymentStatusChargeback,
	"DELETED":                   models.PaymentStatusCanceled,
	"CANCELED":                  models.PaymentStatusCanceled,
}

// asaasEventStatusMap derives an internal status from the webhook event type
// for payloads that omit the payment status field.
var asaasEventStatusMap = map[string]string{
	"PAYMENT_CREATED":                   models.PaymentStatusPending,
	"PAYMENT_UPDATED":                   "",
	"PAYMENT_AWAITING_RISK_ANALYSIS":    models.PaymentStatusAwaitingRiskAnalysis,
	"PAYMENT_APPROVED_BY_RISK_ANALYSIS": models.PaymentStatusProcessing,
	"PAYMENT_REPROVED_BY_RISK_ANALYSIS": models.PaymentStatusFailed,
	"PAYMENT_CONFIRMED":                 models.PaymentStatusConfirmed,
	"PAYMENT_RECEIVED":                  models.PaymentStatusPaid,
	"PAYMENT_OVERDUE":                   models.PaymentStatusOverdue,
	"PAYMENT_REFUNDED":                  models.PaymentStatusRefunded,
	"PAYMENT_DELETED":                   models.PaymentStatusCanceled,
	"PAYMENT_CHARGEBACK_REQUESTED":      models.PaymentStatusChargeback,
}

// MapGatewayStatus translates a raw gateway status string. The second return
// is false for unmapped vocabulary, which the reconciler logs as an anomaly.
func MapGatewayStatus(gateway, raw string) (string, bool) {
	if gateway != GatewayAsaas {
		return "", false
	}
	status, ok := asaasStatusMap[strings.ToUpper(strings.TrimSpace(raw))]
	return status, ok
}

// IsKnownEvent reports whether the event type is one this system processes.
// Unknown events are acknowledged with 200 and never processed, so the
// gateway does not retry them forever.
func IsKnownEvent(gateway, eventType string) bool {
	if gateway != GatewayAsaas {
		return false
	}
	_, ok := asaasEventStatusMap[strings.ToUpper(strings.TrimSpace(eventType))]
	return ok
}

// statusForEvent resolves the internal status for a webhook delivery. The
// payload's own status string wins; the event type is the fallback.
func statusForEvent(gateway, eventType, rawStatus string) (string, bool) {
	if s, ok := MapGatewayStatus(gateway, rawStatus); ok {
		return s, true
	}
	if gateway != GatewayAsaas {
		return "", false
	}
	s, ok := asaasEventStatusMap[strings.ToUpper(strings.TrimSpace(eventType))]
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// statusRank defines the terminal-state ordering used for monotone updates.
// A delivery that would move a payment to a lower rank is a regression and
// is ignored. Sideways moves within a rank are applied.
var statusRank = map[string]int{
	models.PaymentStatusPending:              1,
	models.PaymentStatusAwaitingRiskAnalysis: 1,
	models.PaymentStatusProcessing:           2,
	models.PaymentStatusOverdue:              3,
	models.PaymentStatusFailed:               3,
	models.PaymentStatusCanceled:             3,
	models.PaymentStatusConfirmed:            4,
	models.PaymentStatusPaid:                 5,
	models.PaymentStatusRefunded:             6,
	models.PaymentStatusPartiallyRefunded:    6,
	models.PaymentStatusChargeback:           6,
}

// StatusRank returns the monotone ordering rank for an internal status.
func StatusRank(status string) int {
	return statusRank[status]
}

// IsStatusRegression reports whether moving from current to next would walk
// the ordering backwards. confirmed/paid are never overwritten by
// pending/processing through this check.
func IsStatusRegression(current, next string) bool {
	return StatusRank(next) < StatusRank(current)
}

// entersSettledBand reports whether the transition is the first entry into
// confirmed-or-paid. Only this first entry extends the subscription period,
// so a later confirmed -> paid upgrade cannot extend twice.
func entersSettledBand(current, next string) bool {
	if next != models.PaymentStatusConfirmed && next != models.PaymentStatusPaid {
		return false
	}
	return !(&models.Payment{Status: current}).IsSettled()
}

// marksPastDue reports whether the incoming status should push the linked
// subscription into past_due.
func marksPastDue(next string) bool {
	return next == models.PaymentStatusOverdue || next == models.PaymentStatusFailed
}
