package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ninho-app/ninho/app/models"
	"github.com/ninho-app/ninho/app/repository"
)

// Repository provides DB operations used by the billing service. All
// create-if-absent semantics rely on unique keys plus OnConflict clauses so
// concurrent callers converge on one row without application locks.
type Repository interface {
	// Transact runs fn against a repository bound to one transaction.
	// A non-nil return rolls the whole transaction back.
	Transact(fn func(Repository) error) error

	GetSubscriptionByOwner(ownerType string, ownerID uint) (*models.Subscription, error)
	GetSubscriptionByID(id uint) (*models.Subscription, error)
	GetSubscriptionByExternalID(gateway, externalSubscriptionID string) (*models.Subscription, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error)
	SaveSubscription(sub *models.Subscription) error

	GetPaymentByExternalID(gateway, externalPaymentID string) (*models.Payment, error)
	GetPaymentByPublicID(publicID string) (*models.Payment, error)
	CreatePaymentIfNotExists(payment *models.Payment) (bool, error)
	SavePayment(payment *models.Payment) error

	GetCouponByCode(code string) (*models.Coupon, error)
	CountCouponUsages(couponID uint) (int64, error)
	CountCouponUsagesByOwner(couponID uint, ownerType string, ownerID uint) (int64, error)
	CreateCouponUsage(usage *models.CouponUsage) error

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error

	LoadTrialConfig(ownerType string) (models.TrialConfig, error)

	// Sweep updates. Each is a single predicate-guarded bulk UPDATE, safe to
	// re-run after a crash because the predicate excludes already-moved rows.
	CancelDueSubscriptions(now time.Time) (int64, error)
	ExpireOverduePastDue(cutoff time.Time) (int64, error)
	RollOverLapsedPaid(ownerType, freePlanID string, now time.Time) (int64, error)
}

type gormRepository struct {
	db       *gorm.DB
	settings repository.SettingRepository
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db, settings: repository.NewSettingRepository(db)}
}

func (r *gormRepository) Transact(fn func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx, settings: repository.NewSettingRepository(tx)})
	})
}

func (r *gormRepository) GetSubscriptionByOwner(ownerType string, ownerID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("owner_type = ? AND owner_id = ?", ownerType, ownerID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) GetSubscriptionByExternalID(gateway, externalSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("payment_gateway = ? AND external_subscription_id = ?", gateway, externalSubscriptionID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_type"},
			{Name: "owner_id"},
		},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	// Reload so callers always see the surviving row, not the candidate.
	err := r.db.Where("owner_type = ? AND owner_id = ?", sub.OwnerType, sub.OwnerID).First(sub).Error
	return created, err
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) GetPaymentByExternalID(gateway, externalPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("payment_gateway = ? AND external_payment_id = ?", gateway, externalPaymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) GetPaymentByPublicID(publicID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.Where("public_id = ?", publicID).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) CreatePaymentIfNotExists(payment *models.Payment) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "payment_gateway"},
			{Name: "external_payment_id"},
		},
		DoNothing: true,
	}).Create(payment)
	if tx.Error != nil {
		return false, tx.Error
	}

	created := tx.RowsAffected > 0
	err := r.db.Where("payment_gateway = ? AND external_payment_id = ?", payment.PaymentGateway, payment.ExternalPaymentID).
		First(payment).Error
	return created, err
}

func (r *gormRepository) SavePayment(payment *models.Payment) error {
	return r.db.Save(payment).Error
}

func (r *gormRepository) GetCouponByCode(code string) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.Where("code = ?", models.NormalizeCouponCode(code)).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *gormRepository) CountCouponUsages(couponID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CouponUsage{}).Where("coupon_id = ?", couponID).Count(&count).Error
	return count, err
}

func (r *gormRepository) CountCouponUsagesByOwner(couponID uint, ownerType string, ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.CouponUsage{}).
		Where("coupon_id = ? AND owner_type = ? AND owner_id = ?", couponID, ownerType, ownerID).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) CreateCouponUsage(usage *models.CouponUsage) error {
	return r.db.Create(usage).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "payment_gateway"},
			{Name: "gateway_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("payment_gateway = ? AND gateway_event_id = ?", event.PaymentGateway, event.GatewayEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

// Trial settings are read through the setting repository, bound to the same
// handle so a transactional caller sees a consistent snapshot.
func (r *gormRepository) LoadTrialConfig(ownerType string) (models.TrialConfig, error) {
	return r.settings.TrialConfig(ownerType)
}

func (r *gormRepository) CancelDueSubscriptions(now time.Time) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("cancel_at_period_end = ? AND current_period_end < ? AND status IN ?",
			true, now,
			[]string{models.SubscriptionStatusActive, models.SubscriptionStatusTrialing, models.SubscriptionStatusPastDue}).
		Update("status", models.SubscriptionStatusCanceled)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) ExpireOverduePastDue(cutoff time.Time) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("status = ? AND current_period_end < ?", models.SubscriptionStatusPastDue, cutoff).
		Update("status", models.SubscriptionStatusExpired)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) RollOverLapsedPaid(ownerType, freePlanID string, now time.Time) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("owner_type = ? AND plan_id <> ? AND cancel_at_period_end = ? AND current_period_end < ? AND status IN ?",
			ownerType, freePlanID, false, now,
			[]string{models.SubscriptionStatusActive, models.SubscriptionStatusTrialing}).
		Updates(map[string]interface{}{
			"plan_id":                  freePlanID,
			"status":                   models.SubscriptionStatusActive,
			"billing_interval":         models.BillingIntervalMonth,
			"current_period_start":     now,
			"current_period_end":       models.FarFutureDate,
			"discount_centavos":        0,
			"applied_coupon_id":        nil,
			"external_subscription_id": "",
		})
	return tx.RowsAffected, tx.Error
}
