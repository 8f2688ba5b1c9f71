package billing

import (
	"time"

	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
)

// memoryRepository is an in-memory Repository for service tests. Get methods
// hand out copies so test state only changes through Save calls, matching the
// GORM implementation's behavior.
type memoryRepository struct {
	subs     []*models.Subscription
	payments []*models.Payment
	coupons  []*models.Coupon
	usages   []*models.CouponUsage
	events   []*models.WebhookEvent
	trial    map[string]models.TrialConfig
	nextID   uint
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		trial:  make(map[string]models.TrialConfig),
		nextID: 1,
	}
}

func (m *memoryRepository) id() uint {
	id := m.nextID
	m.nextID++
	return id
}

func (m *memoryRepository) Transact(fn func(Repository) error) error {
	return fn(m)
}

func (m *memoryRepository) findSubscription(match func(*models.Subscription) bool) (*models.Subscription, error) {
	for _, s := range m.subs {
		if match(s) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) GetSubscriptionByOwner(ownerType string, ownerID uint) (*models.Subscription, error) {
	return m.findSubscription(func(s *models.Subscription) bool {
		return s.OwnerType == ownerType && s.OwnerID == ownerID
	})
}

func (m *memoryRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	return m.findSubscription(func(s *models.Subscription) bool { return s.ID == id })
}

func (m *memoryRepository) GetSubscriptionByExternalID(gateway, externalSubscriptionID string) (*models.Subscription, error) {
	return m.findSubscription(func(s *models.Subscription) bool {
		return s.PaymentGateway == gateway && s.ExternalSubscriptionID == externalSubscriptionID && externalSubscriptionID != ""
	})
}

func (m *memoryRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	if existing, err := m.GetSubscriptionByOwner(sub.OwnerType, sub.OwnerID); err == nil {
		*sub = *existing
		return false, nil
	}
	sub.ID = m.id()
	cp := *sub
	m.subs = append(m.subs, &cp)
	return true, nil
}

func (m *memoryRepository) SaveSubscription(sub *models.Subscription) error {
	if sub.ID == 0 {
		sub.ID = m.id()
	}
	for i, s := range m.subs {
		if s.ID == sub.ID {
			cp := *sub
			m.subs[i] = &cp
			return nil
		}
	}
	cp := *sub
	m.subs = append(m.subs, &cp)
	return nil
}

func (m *memoryRepository) findPayment(match func(*models.Payment) bool) (*models.Payment, error) {
	for _, p := range m.payments {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) GetPaymentByExternalID(gateway, externalPaymentID string) (*models.Payment, error) {
	return m.findPayment(func(p *models.Payment) bool {
		return p.PaymentGateway == gateway && p.ExternalPaymentID == externalPaymentID
	})
}

func (m *memoryRepository) GetPaymentByPublicID(publicID string) (*models.Payment, error) {
	return m.findPayment(func(p *models.Payment) bool { return p.PublicID == publicID })
}

func (m *memoryRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	if existing, err := m.GetPaymentByExternalID(payment.PaymentGateway, payment.ExternalPaymentID); err == nil {
		*payment = *existing
		return false, nil
	}
	payment.ID = m.id()
	cp := *payment
	m.payments = append(m.payments, &cp)
	return true, nil
}

func (m *memoryRepository) SavePayment(payment *models.Payment) error {
	if payment.ID == 0 {
		payment.ID = m.id()
	}
	for i, p := range m.payments {
		if p.ID == payment.ID {
			cp := *payment
			m.payments[i] = &cp
			return nil
		}
	}
	cp := *payment
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memoryRepository) GetCouponByCode(code string) (*models.Coupon, error) {
	normalized := models.NormalizeCouponCode(code)
	for _, c := range m.coupons {
		if models.NormalizeCouponCode(c.Code) == normalized {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryRepository) CountCouponUsages(couponID uint) (int64, error) {
	var count int64
	for _, u := range m.usages {
		if u.CouponID == couponID {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) CountCouponUsagesByOwner(couponID uint, ownerType string, ownerID uint) (int64, error) {
	var count int64
	for _, u := range m.usages {
		if u.CouponID == couponID && u.OwnerType == ownerType && u.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) CreateCouponUsage(usage *models.CouponUsage) error {
	usage.ID = m.id()
	cp := *usage
	m.usages = append(m.usages, &cp)
	return nil
}

func (m *memoryRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	for _, e := range m.events {
		if e.PaymentGateway == event.PaymentGateway && e.GatewayEventID == event.GatewayEventID {
			cp := *e
			return false, &cp, nil
		}
	}
	event.ID = m.id()
	cp := *event
	m.events = append(m.events, &cp)
	stored := cp
	return true, &stored, nil
}

func (m *memoryRepository) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range m.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memoryRepository) LoadTrialConfig(ownerType string) (models.TrialConfig, error) {
	return m.trial[ownerType], nil
}

func (m *memoryRepository) CancelDueSubscriptions(now time.Time) (int64, error) {
	var count int64
	for _, s := range m.subs {
		if !s.CancelAtPeriodEnd || !s.CurrentPeriodEnd.Before(now) {
			continue
		}
		switch s.Status {
		case models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue:
			s.Status = models.SubscriptionStatusCanceled
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) ExpireOverduePastDue(cutoff time.Time) (int64, error) {
	var count int64
	for _, s := range m.subs {
		if s.Status == models.SubscriptionStatusPastDue && s.CurrentPeriodEnd.Before(cutoff) {
			s.Status = models.SubscriptionStatusExpired
			count++
		}
	}
	return count, nil
}

func (m *memoryRepository) RollOverLapsedPaid(ownerType, freePlanID string, now time.Time) (int64, error) {
	var count int64
	for _, s := range m.subs {
		if s.OwnerType != ownerType || s.PlanID == freePlanID || s.CancelAtPeriodEnd {
			continue
		}
		if !s.CurrentPeriodEnd.Before(now) {
			continue
		}
		if s.Status != models.SubscriptionStatusActive && s.Status != models.SubscriptionStatusTrialing {
			continue
		}
		s.PlanID = freePlanID
		s.Status = models.SubscriptionStatusActive
		s.BillingInterval = models.BillingIntervalMonth
		s.CurrentPeriodStart = now
		s.CurrentPeriodEnd = models.FarFutureDate
		s.DiscountCentavos = 0
		s.AppliedCouponID = nil
		s.ExternalSubscriptionID = ""
		count++
	}
	return count, nil
}
