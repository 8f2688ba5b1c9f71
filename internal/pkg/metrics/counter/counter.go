package counter

import (
	"context"
	"strconv"

	"github.com/ninho-app/ninho/internal/pkg/cache"
)

const (
	webhookProcessedKey = "webhook:counters:processed"
	webhookDuplicateKey = "webhook:counters:duplicate"
	webhookAnomalyKey   = "webhook:counters:anomaly"
)

// AddWebhookProcessed increments the processed-delivery counter for a gateway in Redis
func AddWebhookProcessed(gateway string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookProcessedKey, gateway, 1).Err()
}

// AddWebhookDuplicate increments the duplicate-delivery counter for a gateway in Redis
func AddWebhookDuplicate(gateway string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookDuplicateKey, gateway, 1).Err()
}

// AddWebhookAnomaly increments the ignored-anomaly counter (status regressions,
// unmapped statuses) for a gateway in Redis
func AddWebhookAnomaly(gateway string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookAnomalyKey, gateway, 1).Err()
}

// WebhookCounts returns the per-gateway counters for one metric key.
func WebhookCounts(metric string) (map[string]int64, error) {
	ctx := context.Background()
	var key string
	switch metric {
	case "duplicate":
		key = webhookDuplicateKey
	case "anomaly":
		key = webhookAnomalyKey
	default:
		key = webhookProcessedKey
	}

	raw, err := cache.GetClient().HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(raw))
	for gateway, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			counts[gateway] = n
		}
	}
	return counts, nil
}
