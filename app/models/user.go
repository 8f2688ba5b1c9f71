package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_NANNY  = "nanny"
	ROLE_FAMILY = "family"
	ROLE_ADMIN  = "admin"

	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is a marketplace account. The role doubles as the billing owner type
// for nannies and families.
type User struct {
	ID                    uint           `gorm:"primaryKey" json:"id"`
	Name                  string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email                 string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password              string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role                  string         `gorm:"type:varchar(50);default:'family'" json:"role" validate:"oneof=nanny family admin"`
	Status                string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	Phone                 string         `gorm:"type:varchar(30);default:null" json:"phone" validate:"max=30"`
	City                  string         `gorm:"type:varchar(120);default:null" json:"city" validate:"max=120"`
	OnboardingCompletedAt *time.Time     `gorm:"type:timestamp;default:null" json:"onboarding_completed_at,omitempty"`
	LastLoginAt           *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt             time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// OwnerType maps the account role to a billing owner type. Admin accounts
// have no subscription and return an empty string.
func (u *User) OwnerType() string {
	switch u.Role {
	case ROLE_NANNY:
		return OwnerTypeNanny
	case ROLE_FAMILY:
		return OwnerTypeFamily
	default:
		return ""
	}
}

func CreateUser(name, email, password, role string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     role,
		Status:   STATUS_ACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
