package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ninho-app/ninho/app/models"
)

func seedLinkedPayment(repo *memoryRepository, subStatus string, periodEnd time.Time) (*models.Subscription, *models.Payment) {
	sub := &models.Subscription{
		ID:                 repo.id(),
		OwnerType:          models.OwnerTypeFamily,
		OwnerID:            1,
		PlanID:             models.PlanFamilyPlus,
		Status:             subStatus,
		BillingInterval:    models.BillingIntervalMonth,
		CurrentPeriodStart: periodEnd.AddDate(0, -1, 0),
		CurrentPeriodEnd:   periodEnd,
		PaymentGateway:     GatewayAsaas,
	}
	repo.subs = append(repo.subs, sub)

	payment := &models.Payment{
		ID:                repo.id(),
		PublicID:          "pub-1",
		OwnerType:         sub.OwnerType,
		OwnerID:           sub.OwnerID,
		SubscriptionID:    &sub.ID,
		AmountCentavos:    4700,
		Currency:          "BRL",
		Status:            models.PaymentStatusPending,
		Type:              models.PaymentTypeSubscription,
		PaymentGateway:    GatewayAsaas,
		ExternalPaymentID: "pay_123",
	}
	repo.payments = append(repo.payments, payment)
	return sub, payment
}

func asaasEvent(eventID, event, paymentID, status string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"event":%q,"payment":{"id":%q,"status":%q,"value":47.00,"billingType":"PIX"}}`,
		eventID, event, paymentID, status))
}

func TestProcessWebhook_ConfirmationExtendsPeriod(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := seedLinkedPayment(repo, models.SubscriptionStatusPastDue, periodEnd)
	svc := NewService(repo, nil)

	result, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        asaasEvent("evt_1", "PAYMENT_CONFIRMED", "pay_123", "CONFIRMED"),
	})
	if err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if !result.Received || result.Duplicate || result.Ignored {
		t.Fatalf("unexpected result: %+v", result)
	}

	payment, err := repo.GetPaymentByExternalID(GatewayAsaas, "pay_123")
	if err != nil {
		t.Fatalf("payment lookup: %v", err)
	}
	if payment.Status != models.PaymentStatusConfirmed {
		t.Fatalf("payment status = %q, want confirmed", payment.Status)
	}
	if payment.PaidAt == nil {
		t.Fatalf("expected PaidAt to be set on settlement")
	}

	got, err := repo.GetSubscriptionByID(sub.ID)
	if err != nil {
		t.Fatalf("subscription lookup: %v", err)
	}
	if got.Status != models.SubscriptionStatusActive {
		t.Fatalf("subscription status = %q, want active", got.Status)
	}
	// Extension is anchored at the previous period end, not at processing time.
	if !got.CurrentPeriodStart.Equal(periodEnd) {
		t.Fatalf("period start = %v, want %v", got.CurrentPeriodStart, periodEnd)
	}
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.CurrentPeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end = %v, want %v", got.CurrentPeriodEnd, wantEnd)
	}
}

func TestProcessWebhook_DuplicateDeliveryIsNoOp(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := seedLinkedPayment(repo, models.SubscriptionStatusPastDue, periodEnd)
	svc := NewService(repo, nil)

	raw := asaasEvent("evt_1", "PAYMENT_CONFIRMED", "pay_123", "CONFIRMED")
	for i := 0; i < 2; i++ {
		result, err := svc.ProcessWebhook(context.Background(), WebhookInput{Gateway: GatewayAsaas, TokenValid: true, Raw: raw})
		if err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
		if i == 1 && !result.Duplicate {
			t.Fatalf("expected second delivery to be a duplicate")
		}
	}

	got, _ := repo.GetSubscriptionByID(sub.ID)
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.CurrentPeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end = %v, want %v (extended exactly once)", got.CurrentPeriodEnd, wantEnd)
	}
}

func TestProcessWebhook_ConfirmedThenReceivedExtendsOnce(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := seedLinkedPayment(repo, models.SubscriptionStatusActive, periodEnd)
	svc := NewService(repo, nil)

	deliveries := [][]byte{
		asaasEvent("evt_1", "PAYMENT_CONFIRMED", "pay_123", "CONFIRMED"),
		asaasEvent("evt_2", "PAYMENT_RECEIVED", "pay_123", "RECEIVED"),
	}
	for _, raw := range deliveries {
		if _, err := svc.ProcessWebhook(context.Background(), WebhookInput{Gateway: GatewayAsaas, TokenValid: true, Raw: raw}); err != nil {
			t.Fatalf("ProcessWebhook: %v", err)
		}
	}

	payment, _ := repo.GetPaymentByExternalID(GatewayAsaas, "pay_123")
	if payment.Status != models.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid", payment.Status)
	}

	got, _ := repo.GetSubscriptionByID(sub.ID)
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.CurrentPeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end = %v, want %v (settled band entered once)", got.CurrentPeriodEnd, wantEnd)
	}
}

func TestProcessWebhook_StatusRegressionIgnored(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, payment := seedLinkedPayment(repo, models.SubscriptionStatusActive, periodEnd)
	payment.Status = models.PaymentStatusPaid
	svc := NewService(repo, nil)

	result, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        asaasEvent("evt_late", "PAYMENT_UPDATED", "pay_123", "PENDING"),
	})
	if err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if !result.Ignored || !result.Anomaly {
		t.Fatalf("expected regression to be ignored and flagged as an anomaly, got %+v", result)
	}

	got, _ := repo.GetPaymentByExternalID(GatewayAsaas, "pay_123")
	if got.Status != models.PaymentStatusPaid {
		t.Fatalf("payment status = %q, want paid to survive the late delivery", got.Status)
	}
	gotSub, _ := repo.GetSubscriptionByID(sub.ID)
	if !gotSub.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end changed on an ignored delivery")
	}
}

func TestProcessWebhook_OverdueMarksPastDue(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := seedLinkedPayment(repo, models.SubscriptionStatusActive, periodEnd)
	svc := NewService(repo, nil)

	if _, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        asaasEvent("evt_od", "PAYMENT_OVERDUE", "pay_123", "OVERDUE"),
	}); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}

	got, _ := repo.GetSubscriptionByID(sub.ID)
	if got.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("subscription status = %q, want past_due", got.Status)
	}
	// Grace policy: the period is left alone, only the sweep revokes access.
	if !got.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end changed on overdue")
	}
}

func TestProcessWebhook_UnknownEventAcknowledged(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)

	result, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        asaasEvent("evt_x", "FOO_EVENT", "pay_999", "CONFIRMED"),
	})
	if err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if !result.Received || !result.Ignored {
		t.Fatalf("expected received+ignored, got %+v", result)
	}
	// Skipping an event type we never handle is routine, not an anomaly.
	if result.Anomaly {
		t.Fatalf("unknown event type must not count as an anomaly")
	}
	if len(repo.payments) != 0 || len(repo.subs) != 0 {
		t.Fatalf("unknown event must not mutate billing state")
	}
	// The delivery is still recorded for dedup.
	if len(repo.events) != 1 {
		t.Fatalf("expected event row, got %d", len(repo.events))
	}
}

func TestProcessWebhook_UnmappedStatusIsAnomaly(t *testing.T) {
	repo := newMemoryRepository()
	periodEnd := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sub, _ := seedLinkedPayment(repo, models.SubscriptionStatusActive, periodEnd)
	svc := NewService(repo, nil)

	result, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        asaasEvent("evt_odd", "PAYMENT_UPDATED", "pay_123", "SOMETHING_NEW"),
	})
	if err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}
	if !result.Ignored || !result.Anomaly {
		t.Fatalf("expected unmapped status to be ignored and flagged as an anomaly, got %+v", result)
	}

	got, _ := repo.GetSubscriptionByID(sub.ID)
	if !got.CurrentPeriodEnd.Equal(periodEnd) {
		t.Fatalf("period end changed on an unmapped status")
	}
}

func TestProcessWebhook_InvalidJSON(t *testing.T) {
	svc := NewService(newMemoryRepository(), nil)

	_, err := svc.ProcessWebhook(context.Background(), WebhookInput{
		Gateway:    GatewayAsaas,
		TokenValid: true,
		Raw:        []byte("{not json"),
	})
	if KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestProcessWebhook_MissingEventIDDedupsByHash(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo, nil)

	raw := []byte(`{"event":"PAYMENT_CREATED","payment":{"id":"pay_7","status":"PENDING","value":29.90,"billingType":"BOLETO"}}`)
	if _, err := svc.ProcessWebhook(context.Background(), WebhookInput{Gateway: GatewayAsaas, TokenValid: true, Raw: raw}); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	result, err := svc.ProcessWebhook(context.Background(), WebhookInput{Gateway: GatewayAsaas, TokenValid: true, Raw: raw})
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if !result.Duplicate {
		t.Fatalf("expected byte-identical payload without id to dedup by hash")
	}
}

func TestProcessWebhook_FirstSeenPaymentLinksSubscription(t *testing.T) {
	repo := newMemoryRepository()
	sub := &models.Subscription{
		ID:                     repo.id(),
		OwnerType:              models.OwnerTypeNanny,
		OwnerID:                4,
		PlanID:                 models.PlanNannyPro,
		Status:                 models.SubscriptionStatusActive,
		BillingInterval:        models.BillingIntervalMonth,
		CurrentPeriodStart:     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		PaymentGateway:         GatewayAsaas,
		ExternalSubscriptionID: "sub_abc",
	}
	repo.subs = append(repo.subs, sub)
	svc := NewService(repo, nil)

	raw := []byte(`{"id":"evt_fs","event":"PAYMENT_RECEIVED","payment":{"id":"pay_new","subscription":"sub_abc","status":"RECEIVED","value":29.90,"billingType":"CREDIT_CARD"}}`)
	if _, err := svc.ProcessWebhook(context.Background(), WebhookInput{Gateway: GatewayAsaas, TokenValid: true, Raw: raw}); err != nil {
		t.Fatalf("ProcessWebhook: %v", err)
	}

	payment, err := repo.GetPaymentByExternalID(GatewayAsaas, "pay_new")
	if err != nil {
		t.Fatalf("payment lookup: %v", err)
	}
	if payment.AmountCentavos != 2990 {
		t.Fatalf("amount = %d, want 2990", payment.AmountCentavos)
	}
	if payment.SubscriptionID == nil || *payment.SubscriptionID != sub.ID {
		t.Fatalf("expected payment to link subscription %d", sub.ID)
	}
	if payment.OwnerType != sub.OwnerType || payment.OwnerID != sub.OwnerID {
		t.Fatalf("expected payment to inherit the subscription owner")
	}

	got, _ := repo.GetSubscriptionByID(sub.ID)
	wantEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.CurrentPeriodEnd.Equal(wantEnd) {
		t.Fatalf("period end = %v, want %v", got.CurrentPeriodEnd, wantEnd)
	}
}

func TestNextPeriodEnd(t *testing.T) {
	base := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	if got := NextPeriodEnd(base, models.BillingIntervalMonth); !got.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("month from Jan 31 = %v", got)
	}
	base = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if got := NextPeriodEnd(base, models.BillingIntervalYear); !got.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("year from Jun 15 = %v", got)
	}
}
