package models

import (
	"time"
)

// Connection tracks at most one live session per user. Superseding a
// connection invalidates the previous id immediately for gameplay mutations.
type Connection struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	ConnectionID string `gorm:"type:varchar(32);not null"`
	Status       string `gorm:"type:varchar(20);default:'active';index"`

	LastSeenAt     time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	DisconnectedAt *time.Time
	SupersededAt   *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Connection status constants
const (
	ConnStatusActive       = "active"
	ConnStatusDisconnected = "disconnected"
	ConnStatusExpired      = "expired"
)

// Connect event constants
const (
	ConnEventCreated   = "created"
	ConnEventReconnect = "reconnect"
	ConnEventSupersede = "supersede"
)

func (Connection) TableName() string {
	return "connections"
}
