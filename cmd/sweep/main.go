package main

import (
	"context"
	"log"
	"strconv"

	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/database"
	"github.com/ninho-app/ninho/internal/pkg/env"
)

// Runs one expiration sweep and exits. Scheduling is left to cron or the
// container orchestrator so exactly one instance runs per tick.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()

	graceDays := 30
	if v := env.GetEnv("BILLING_PAST_DUE_GRACE_DAYS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			log.Fatalf("invalid BILLING_PAST_DUE_GRACE_DAYS: %q", v)
		}
		graceDays = n
	}

	svc := billing.NewServiceFromDB(database.GetDB(), nil)
	result, err := svc.RunExpirationSweep(context.Background(), graceDays)
	if err != nil {
		log.Fatalf("expiration sweep failed: %v", err)
	}

	log.Printf("expiration sweep done: canceled=%d expired=%d rolled_over=%d",
		result.Canceled, result.Expired, result.RolledOver)
}
