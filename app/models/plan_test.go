package models

import "testing"

func TestFindPlan(t *testing.T) {
	for _, id := range []string{PlanNannyFree, PlanNannyPro, PlanFamilyFree, PlanFamilyPlus} {
		p := FindPlan(id)
		if p == nil || p.ID != id {
			t.Fatalf("FindPlan(%q) = %+v", id, p)
		}
	}
	if FindPlan("GOLD") != nil {
		t.Fatalf("expected unknown plan to return nil")
	}
}

func TestPlanPrice(t *testing.T) {
	tests := []struct {
		planID   string
		interval string
		want     int64
	}{
		{planID: PlanFamilyPlus, interval: BillingIntervalMonth, want: 4700},
		{planID: PlanFamilyPlus, interval: BillingIntervalYear, want: 47000},
		{planID: PlanNannyPro, interval: BillingIntervalMonth, want: 2990},
		{planID: PlanNannyPro, interval: BillingIntervalYear, want: 29900},
		{planID: PlanNannyFree, interval: BillingIntervalMonth, want: 0},
	}

	for _, tt := range tests {
		if got := FindPlan(tt.planID).Price(tt.interval); got != tt.want {
			t.Fatalf("%s %s price = %d, want %d", tt.planID, tt.interval, got, tt.want)
		}
	}
}

func TestFreeAndPaidPlanFor(t *testing.T) {
	if p := FreePlanFor(OwnerTypeNanny); p == nil || p.ID != PlanNannyFree || p.IsPaid() {
		t.Fatalf("FreePlanFor(nanny) = %+v", p)
	}
	if p := PaidPlanFor(OwnerTypeFamily); p == nil || p.ID != PlanFamilyPlus || !p.IsPaid() {
		t.Fatalf("PaidPlanFor(family) = %+v", p)
	}
}

func TestSubscriptionPlanFallback(t *testing.T) {
	sub := Subscription{OwnerType: OwnerTypeFamily, PlanID: "LEGACY"}
	if p := sub.Plan(); p.ID != PlanFamilyFree {
		t.Fatalf("stale plan id must resolve to free, got %q", p.ID)
	}
}
