package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
	"github.com/ninho-app/ninho/app/repository"
)

type accountSyncRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=nanny family"`
	Phone    string `json:"phone" validate:"omitempty,max=30"`
	City     string `json:"city" validate:"omitempty,max=120"`
}

type accountVerifyRequest struct {
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required"`
}

// HandleAccountSync mirrors an account from the product edge. The password
// arrives in clear over the internal channel and only the bcrypt hash is
// stored. Re-syncing an existing email is a conflict, not an update.
func HandleAccountSync(c *fiber.Ctx) error {
	var req accountSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "invalid request body",
			"errorCode": "INVALID_BODY",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"errorCode": "INVALID_BODY",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	repo := repository.GetGlobalFactory().GetUserRepository()
	if _, err := repo.GetByEmail(email); err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "an account with this email already exists",
			"errorCode": "EMAIL_TAKEN",
		})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("account lookup failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "internal error",
			"errorCode": "INTERNAL_ERROR",
		})
	}

	user, err := models.CreateUser(req.Name, email, req.Password, req.Role)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"errorCode": "INVALID_ACCOUNT",
		})
	}
	user.Phone = req.Phone
	user.City = req.City

	if err := repo.Create(user); err != nil {
		log.Errorf("account create failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "internal error",
			"errorCode": "INTERNAL_ERROR",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// HandleAccountVerify checks credentials for a sibling service. A wrong
// password and an unknown email answer the same way so the endpoint cannot
// be used to enumerate accounts.
func HandleAccountVerify(c *fiber.Ctx) error {
	var req accountVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "invalid request body",
			"errorCode": "INVALID_BODY",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     err.Error(),
			"errorCode": "INVALID_BODY",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	repo := repository.GetGlobalFactory().GetUserRepository()
	user, err := repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":     "invalid credentials",
				"errorCode": "INVALID_CREDENTIALS",
			})
		}
		log.Errorf("account lookup failed for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":     "internal error",
			"errorCode": "INTERNAL_ERROR",
		})
	}

	if user.Status != models.STATUS_ACTIVE || !models.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":     "invalid credentials",
			"errorCode": "INVALID_CREDENTIALS",
		})
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := repo.Update(user); err != nil {
		log.Warnf("last login update failed for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user":  user,
	})
}
