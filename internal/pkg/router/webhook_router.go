package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ninho-app/ninho/app/controllers"
)

type WebhookRouter struct {
}

func (h WebhookRouter) InstallRouter(app *fiber.App) {
	app.Post("/webhooks/payment", controllers.HandlePaymentWebhook)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewWebhookRouter() *WebhookRouter {
	return &WebhookRouter{}
}
