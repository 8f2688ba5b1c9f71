package controllers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ninho-app/ninho/internal/pkg/billing"
	"github.com/ninho-app/ninho/internal/pkg/database"
	"github.com/ninho-app/ninho/internal/pkg/env"
	"github.com/ninho-app/ninho/internal/pkg/gateway"
	"github.com/ninho-app/ninho/internal/pkg/metrics/counter"
)

// HandlePaymentWebhook receives asynchronous payment notifications.
// Authentication happens before anything is persisted: a request with a bad
// token leaves no trace beyond a log line. After that point the handler
// answers 200 for everything the reconciler accepted, including duplicates
// and unknown event types, so the gateway stops redelivering. Only infra
// failures return 5xx, which makes the gateway retry later.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	gatewayName := strings.ToLower(strings.TrimSpace(c.Query("gateway")))
	if gatewayName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "gateway query parameter is required",
			"errorCode": "GATEWAY_REQUIRED",
		})
	}
	if gatewayName != billing.GatewayAsaas {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "unsupported payment gateway",
			"errorCode": "GATEWAY_UNSUPPORTED",
		})
	}

	token := c.Get(gatewayName + "-access-token")
	secret := env.GetEnv(strings.ToUpper(gatewayName)+"_WEBHOOK_TOKEN", "")
	if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		log.Warnf("[Webhook] rejected %s notification: invalid access token", gatewayName)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":     "invalid webhook token",
			"errorCode": "INVALID_WEBHOOK_TOKEN",
		})
	}

	raw := make([]byte, len(c.Body()))
	copy(raw, c.Body())

	svc := billing.NewServiceFromDB(database.GetDB(), gateway.NewAsaasClientFromEnv())
	result, err := svc.ProcessWebhook(c.Context(), billing.WebhookInput{
		Gateway:    gatewayName,
		TokenValid: true,
		Raw:        raw,
	})
	if err != nil {
		if billing.KindOf(err) == billing.KindValidation {
			counter.AddWebhookAnomaly(gatewayName)
			return respondBillingError(c, err)
		}
		log.Errorf("[Webhook] processing %s notification failed: %v", gatewayName, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "webhook processing failed",
			"errorCode": "WEBHOOK_PROCESSING_FAILED",
		})
	}

	switch {
	case result.Duplicate:
		counter.AddWebhookDuplicate(gatewayName)
	case result.Anomaly:
		counter.AddWebhookAnomaly(gatewayName)
	default:
		counter.AddWebhookProcessed(gatewayName)
	}

	return c.JSON(result)
}
