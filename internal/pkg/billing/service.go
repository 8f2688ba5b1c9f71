package billing

import (
	"gorm.io/gorm"
)

// Service owns the subscription, payment and coupon lifecycle. It is the
// only writer of billing state; everything else reads snapshots through the
// entitlement resolver.
type Service struct {
	repo    Repository
	gateway Gateway
}

// NewService creates a billing service from an injected repository and
// payment gateway.
func NewService(repo Repository, gateway Gateway) *Service {
	return &Service{repo: repo, gateway: gateway}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, gateway Gateway) *Service {
	return NewService(NewRepository(db), gateway)
}
