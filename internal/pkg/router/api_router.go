package router

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ninho-app/ninho/app/controllers"
	"github.com/ninho-app/ninho/internal/pkg/cache"
	"github.com/ninho-app/ninho/internal/pkg/env"
	"github.com/ninho-app/ninho/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Storage:    limiterStorage(),
	}))

	v1 := api.Group("/v1", middleware.ServiceTokenMiddleware())

	// Account sync and credential checks are service-to-service calls with
	// no owner scope of their own.
	v1.Post("/accounts", controllers.HandleAccountSync)
	v1.Post("/accounts/verify", controllers.HandleAccountVerify)

	// Coupon preview works with or without an owner identity; allowlist and
	// per-user checks just stay inert without one.
	v1.Post("/coupons/validate", controllers.HandleCouponValidate)

	owned := v1.Group("", middleware.RequireOwner())
	owned.Post("/checkout", controllers.HandleStartCheckout)
	owned.Get("/checkout/:paymentID/pix", controllers.HandlePixQRCode)
	owned.Post("/subscriptions/onboarding-complete", controllers.HandleOnboardingComplete)
	owned.Post("/subscriptions/cancel", controllers.HandleCancelSubscription)
	owned.Get("/subscriptions/current", controllers.HandleCurrentSubscription)
}

// limiterStorage backs the rate limiter with Redis so limits hold across
// replicas. Uses database 1, the cache client stays on database 0.
func limiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}
	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
	})
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
