package repository

import (
	"gorm.io/gorm"

	"github.com/ninho-app/ninho/app/models"
)

type gormSettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a setting repository backed by GORM.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &gormSettingRepository{db: db}
}

func (r *gormSettingRepository) GetValue(key string) (string, error) {
	var setting models.Setting
	if err := r.db.Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (r *gormSettingRepository) SetValue(key, value, settingType string) error {
	return models.SetSettingValue(r.db, key, value, settingType)
}

func (r *gormSettingRepository) TrialConfig(ownerType string) (models.TrialConfig, error) {
	return models.LoadTrialConfig(r.db, ownerType)
}
