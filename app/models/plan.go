package models

const (
	OwnerTypeNanny  = "nanny"
	OwnerTypeFamily = "family"
)

const (
	PlanTierFree = "free"
	PlanTierPaid = "paid"
)

const (
	BillingIntervalMonth = "month"
	BillingIntervalYear  = "year"
)

const (
	PlanNannyFree  = "NANNY_FREE"
	PlanNannyPro   = "NANNY_PRO"
	PlanFamilyFree = "FAMILY_FREE"
	PlanFamilyPlus = "FAMILY_PLUS"
)

// Plan is an immutable catalog entry. Plans are reference data compiled into
// the binary; subscriptions point at them by ID. Prices are integer centavos.
type Plan struct {
	ID               string
	OwnerType        string
	Tier             string
	PriceMonthly     int64
	PriceYearly      int64
	CanFavorite      bool
	CanContact       bool
	CanCreateJob     bool
	ProfileViewLimit int
	MaxActiveJobs    int
}

// planCatalog holds every plan the product sells. Order is not significant.
var planCatalog = []Plan{
	{
		ID:               PlanNannyFree,
		OwnerType:        OwnerTypeNanny,
		Tier:             PlanTierFree,
		ProfileViewLimit: 5,
	},
	{
		ID:               PlanNannyPro,
		OwnerType:        OwnerTypeNanny,
		Tier:             PlanTierPaid,
		PriceMonthly:     2990,
		PriceYearly:      29900,
		CanFavorite:      true,
		CanContact:       true,
		ProfileViewLimit: 0, // unlimited
	},
	{
		ID:               PlanFamilyFree,
		OwnerType:        OwnerTypeFamily,
		Tier:             PlanTierFree,
		ProfileViewLimit: 5,
		MaxActiveJobs:    1,
	},
	{
		ID:               PlanFamilyPlus,
		OwnerType:        OwnerTypeFamily,
		Tier:             PlanTierPaid,
		PriceMonthly:     4700,
		PriceYearly:      47000,
		CanFavorite:      true,
		CanContact:       true,
		CanCreateJob:     true,
		ProfileViewLimit: 0,
		MaxActiveJobs:    10,
	},
}

// FindPlan looks up a plan by ID. Returns nil when the ID is unknown.
func FindPlan(id string) *Plan {
	for i := range planCatalog {
		if planCatalog[i].ID == id {
			return &planCatalog[i]
		}
	}
	return nil
}

// FreePlanFor returns the free-tier plan for an owner type.
func FreePlanFor(ownerType string) *Plan {
	for i := range planCatalog {
		if planCatalog[i].OwnerType == ownerType && planCatalog[i].Tier == PlanTierFree {
			return &planCatalog[i]
		}
	}
	return nil
}

// PaidPlanFor returns the paid-tier plan for an owner type.
func PaidPlanFor(ownerType string) *Plan {
	for i := range planCatalog {
		if planCatalog[i].OwnerType == ownerType && planCatalog[i].Tier == PlanTierPaid {
			return &planCatalog[i]
		}
	}
	return nil
}

// Price returns the plan price in centavos for a billing interval.
func (p *Plan) Price(interval string) int64 {
	if interval == BillingIntervalYear {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// IsPaid reports whether the plan is a paid tier.
func (p *Plan) IsPaid() bool {
	return p.Tier == PlanTierPaid
}

// ValidOwnerType reports whether the value is a known owner type.
func ValidOwnerType(ownerType string) bool {
	return ownerType == OwnerTypeNanny || ownerType == OwnerTypeFamily
}

// ValidBillingInterval reports whether the value is a known billing interval.
func ValidBillingInterval(interval string) bool {
	return interval == BillingIntervalMonth || interval == BillingIntervalYear
}
