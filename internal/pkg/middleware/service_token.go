package middleware

import (
	"crypto/subtle"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
	"github.com/ninho-app/ninho/app/repository"
	"github.com/ninho-app/ninho/internal/pkg/env"
	"github.com/ninho-app/ninho/internal/pkg/ownercontext"
)

const (
	headerServiceToken = "X-Service-Token"
	headerOwnerType    = "X-Owner-Type"
	headerOwnerID      = "X-Owner-Id"
)

// ServiceTokenMiddleware authenticates internal callers (the product edge
// and sibling services) via a shared secret and resolves the owner identity
// they act for. Owner headers are trusted only behind a valid token.
func ServiceTokenMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := env.GetEnv("SERVICE_API_TOKEN", "")
		token := strings.TrimSpace(c.Get(headerServiceToken))
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "unauthorized", "errorCode": "INVALID_SERVICE_TOKEN",
			})
		}

		ownerType := strings.TrimSpace(c.Get(headerOwnerType))
		ownerID, _ := strconv.ParseUint(strings.TrimSpace(c.Get(headerOwnerID)), 10, 32)
		if ownerType == "" || ownerID == 0 {
			// Token-only call (no owner scope); handlers that need an owner
			// reject it themselves.
			return c.Next()
		}
		if !models.ValidOwnerType(ownerType) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid owner type", "errorCode": "INVALID_OWNER_TYPE",
			})
		}

		oc := ownercontext.OwnerContext{OwnerType: ownerType, OwnerID: uint(ownerID)}

		// Enrich with account data; coupon allowlists match on email.
		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByID(uint(ownerID))
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("owner lookup failed for %s/%d: %v", ownerType, ownerID, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "internal error", "errorCode": "INTERNAL_ERROR",
				})
			}
		} else {
			oc.Role = user.Role
			oc.Email = user.Email
			oc.Name = user.Name
		}

		ownercontext.Set(c, oc)
		return c.Next()
	}
}

// RequireOwner rejects requests that carry no owner identity.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !ownercontext.Get(c).IsPresent() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "owner identity required", "errorCode": "OWNER_REQUIRED",
			})
		}
		return c.Next()
	}
}
