package models

import (
	"time"
)

// SystemSetting is a keyed configuration row. The online_enabled flag gates
// every join/create path; flipping it off sweeps all live play.
type SystemSetting struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	Value     string    `gorm:"type:varchar(255);not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

const SettingOnlineEnabled = "online_enabled"

func (SystemSetting) TableName() string {
	return "system_settings"
}
