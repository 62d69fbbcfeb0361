package models

import (
	"time"
)

// QueueEntry is one user waiting for FIFO pairing under a mode key.
type QueueEntry struct {
	ID      uint   `gorm:"primaryKey"`
	UserID  uint   `gorm:"not null;index"`
	User    User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	ModeKey string `gorm:"type:varchar(40);not null;index"`
	Fee     int64  `gorm:"not null"`
	CodeLen int    `gorm:"not null"`

	Status  string `gorm:"type:varchar(20);default:'waiting';index"`
	MatchID uint   `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Queue status constants. waiting -> cancelled is the single refund gate:
// an entry refunds exactly once because only that transition pays out.
const (
	QueueStatusWaiting   = "waiting"
	QueueStatusMatched   = "matched"
	QueueStatusCancelled = "cancelled"
)

// Cancel reason constants
const (
	CancelReasonUser    = "user"
	CancelReasonTimeout = "timeout"
	CancelReasonReplace = "replaced"
	CancelReasonAdmin   = "admin"
)

func (QueueEntry) TableName() string {
	return "queue_entries"
}
