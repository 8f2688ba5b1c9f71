package repository

import (
	"sync"

	"gorm.io/gorm"

	"github.com/ninho-app/ninho/internal/pkg/database"
)

// Factory hands out repository instances bound to the shared DB handle.
type Factory struct {
	db *gorm.DB

	userOnce    sync.Once
	userRepo    UserRepository
	settingOnce sync.Once
	settingRepo SettingRepository
}

var (
	globalFactory *Factory
	globalOnce    sync.Once
)

// NewFactory creates a repository factory for a DB handle.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetGlobalFactory returns the process-wide factory bound to the shared DB.
func GetGlobalFactory() *Factory {
	globalOnce.Do(func() {
		globalFactory = NewFactory(database.GetDB())
	})
	return globalFactory
}

func (f *Factory) GetUserRepository() UserRepository {
	f.userOnce.Do(func() {
		f.userRepo = NewUserRepository(f.db)
	})
	return f.userRepo
}

func (f *Factory) GetSettingRepository() SettingRepository {
	f.settingOnce.Do(func() {
		f.settingRepo = NewSettingRepository(f.db)
	})
	return f.settingRepo
}
