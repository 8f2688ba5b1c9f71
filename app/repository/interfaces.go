package repository

import (
	"github.com/ninho-app/ninho/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	GetValue(key string) (string, error)
	SetValue(key, value, settingType string) error
	TrialConfig(ownerType string) (models.TrialConfig, error)
}
