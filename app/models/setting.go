package models

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Setting is a system setting row (string-typed key-value store).
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type"` // string, boolean, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Trial configuration keys, one pair per owner type.
const (
	SettingTrialNannyEnabled  = "trial_nanny_enabled"
	SettingTrialNannyDays     = "trial_nanny_days"
	SettingTrialFamilyEnabled = "trial_family_enabled"
	SettingTrialFamilyDays    = "trial_family_days"
)

// TrialConfig is the trial toggle and window for one owner type. It is read
// from the settings table once per operation, never cached as process-wide
// state, so tests stay deterministic and config changes apply immediately.
type TrialConfig struct {
	Enabled bool
	Days    int
}

// LoadTrialConfig reads the trial configuration for an owner type. Missing
// rows mean "trial disabled".
func LoadTrialConfig(db *gorm.DB, ownerType string) (TrialConfig, error) {
	enabledKey, daysKey := SettingTrialNannyEnabled, SettingTrialNannyDays
	if ownerType == OwnerTypeFamily {
		enabledKey, daysKey = SettingTrialFamilyEnabled, SettingTrialFamilyDays
	}

	var settings []Setting
	if err := db.Where("setting_key IN ?", []string{enabledKey, daysKey}).Find(&settings).Error; err != nil {
		return TrialConfig{}, fmt.Errorf("failed to load trial settings: %w", err)
	}

	cfg := TrialConfig{}
	for _, s := range settings {
		switch s.Key {
		case enabledKey:
			cfg.Enabled = s.Value == "true"
		case daysKey:
			if days, err := strconv.Atoi(s.Value); err == nil {
				cfg.Days = days
			}
		}
	}
	return cfg, nil
}

// SetSettingValue creates or updates a single setting row.
func SetSettingValue(db *gorm.DB, key, value, settingType string) error {
	var setting Setting
	result := db.Where("setting_key = ?", key).First(&setting)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			setting = Setting{Key: key, Value: value, Type: settingType}
			if err := db.Create(&setting).Error; err != nil {
				return fmt.Errorf("failed to create setting %s: %w", key, err)
			}
			return nil
		}
		return fmt.Errorf("failed to query setting %s: %w", key, result.Error)
	}

	setting.Value = value
	if err := db.Save(&setting).Error; err != nil {
		return fmt.Errorf("failed to update setting %s: %w", key, err)
	}
	return nil
}
