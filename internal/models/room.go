package models

import (
	"time"

	"github.com/Mesh2A/digitduel/pkg/utils"
	"gorm.io/gorm"
)

// RoomCodeLen is the length of the shareable pairing code.
const RoomCodeLen = 6

// Room is a code-based two-player pairing: host creates, guest joins by code.
type Room struct {
	ID      uint   `gorm:"primaryKey"`
	Code    string `gorm:"type:varchar(6);uniqueIndex;not null"`
	ModeKey string `gorm:"type:varchar(40);not null;index"`
	Fee     int64  `gorm:"not null"`
	CodeLen int    `gorm:"not null"`

	HostID  uint `gorm:"not null;index"`
	Host    User `gorm:"foreignKey:HostID;constraint:OnDelete:CASCADE"`
	GuestID uint `gorm:"default:0"`

	Status  string `gorm:"type:varchar(20);default:'waiting';index"`
	MatchID uint   `gorm:"default:0"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Room status constants
const (
	RoomStatusWaiting   = "waiting"
	RoomStatusMatched   = "matched"
	RoomStatusCancelled = "cancelled"
)

// BeforeCreate generates the room code from the unambiguous alphabet.
func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.Code == "" {
		r.Code = utils.GenerateRoomCode(RoomCodeLen)
	}
	return nil
}

func (Room) TableName() string {
	return "rooms"
}
