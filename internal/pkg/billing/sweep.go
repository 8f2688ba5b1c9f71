package billing

import (
	"context"
	"time"

	"github.com/ninho-app/ninho/app/models"
)

// RunExpirationSweep applies the period-rollover bookkeeping for every
// subscription whose period has lapsed. Scheduling is external (cron or
// on-demand); the sweep itself is three predicate-guarded bulk updates per
// owner type, so a killed run can simply be restarted: rows already moved no
// longer match the predicates.
//
// Order matters: cancellation requests win over everything, then past_due
// rows beyond the grace window expire, and only then do the remaining lapsed
// paid rows fall back to the free tier (which rolls over automatically;
// paid tiers never roll over without gateway confirmation).
func (s *Service) RunExpirationSweep(ctx context.Context, graceDays int) (*SweepResult, error) {
	_ = ctx
	now := time.Now()
	result := &SweepResult{}

	canceled, err := s.repo.CancelDueSubscriptions(now)
	if err != nil {
		return result, err
	}
	result.Canceled = canceled

	cutoff := now.AddDate(0, 0, -graceDays)
	expired, err := s.repo.ExpireOverduePastDue(cutoff)
	if err != nil {
		return result, err
	}
	result.Expired = expired

	for _, ownerType := range []string{models.OwnerTypeNanny, models.OwnerTypeFamily} {
		free := models.FreePlanFor(ownerType)
		rolled, err := s.repo.RollOverLapsedPaid(ownerType, free.ID, now)
		if err != nil {
			return result, err
		}
		result.RolledOver += rolled
	}

	return result, nil
}
