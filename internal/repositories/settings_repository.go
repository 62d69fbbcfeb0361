package repositories

import (
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// OnlineEnabled reads the global gameplay toggle; missing row means enabled.
func (r *SettingsRepository) OnlineEnabled() (bool, error) {
	var setting models.SystemSetting
	err := r.db.Where("key = ?", models.SettingOnlineEnabled).First(&setting).Error
	if err == gorm.ErrRecordNotFound {
		return true, nil
	}
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read settings")
	}
	return setting.Value != "false", nil
}

// SetOnlineEnabled upserts the toggle inside tx.
func (r *SettingsRepository) SetOnlineEnabled(tx *gorm.DB, enabled bool) error {
	value := "true"
	if !enabled {
		value = "false"
	}

	var setting models.SystemSetting
	err := tx.Where("key = ?", models.SettingOnlineEnabled).First(&setting).Error
	if err == gorm.ErrRecordNotFound {
		setting = models.SystemSetting{Key: models.SettingOnlineEnabled, Value: value}
		if err := tx.Create(&setting).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create setting")
		}
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to read settings")
	}

	if err := tx.Model(&setting).Update("value", value).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update setting")
	}
	return nil
}
