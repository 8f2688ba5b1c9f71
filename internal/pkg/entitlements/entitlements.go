package entitlements

import (
	"github.com/ninho-app/ninho/app/models"
)

// Capabilities is the feature-access set the rest of the product gates on.
// ProfileViewLimit and MaxActiveJobs of 0 mean unlimited on paid tiers.
type Capabilities struct {
	PlanID           string `json:"plan_id"`
	Status           string `json:"status"`
	CanFavorite      bool   `json:"can_favorite"`
	CanContact       bool   `json:"can_contact"`
	CanCreateJob     bool   `json:"can_create_job"`
	ProfileViewLimit int    `json:"profile_view_limit"`
	MaxActiveJobs    int    `json:"max_active_jobs"`
}

// Resolve maps a subscription snapshot to its capability set. Pure function
// of plan and status: expired and canceled rows always collapse to the
// free-tier set regardless of which plan they previously held, so a lapsed
// subscription can never leak elevated access.
func Resolve(sub *models.Subscription) Capabilities {
	plan := sub.Plan()
	if !sub.IsEntitling() {
		plan = models.FreePlanFor(sub.OwnerType)
	}
	return Capabilities{
		PlanID:           plan.ID,
		Status:           sub.Status,
		CanFavorite:      plan.CanFavorite,
		CanContact:       plan.CanContact,
		CanCreateJob:     plan.CanCreateJob,
		ProfileViewLimit: plan.ProfileViewLimit,
		MaxActiveJobs:    plan.MaxActiveJobs,
	}
}
