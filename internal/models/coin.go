package models

import (
	"time"
)

// CoinTransaction is the append-only escrow ledger. Every debit and credit
// the engine performs writes one row in the same transaction as the
// queue/room/match mutation it belongs to.
type CoinTransaction struct {
	ID              uint      `gorm:"primaryKey"`
	UserID          uint      `gorm:"not null;index"`
	User            User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Amount          int64     `gorm:"not null"`
	TransactionType string    `gorm:"type:varchar(50);not null;index"`
	Description     string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

// Transaction type constants
const (
	TxTypeQueueEntry  = "queue_entry"
	TxTypeQueueRefund = "queue_refund"
	TxTypeRoomEntry   = "room_entry"
	TxTypeRoomRefund  = "room_refund"
	TxTypeMatchPayout = "match_payout"
	TxTypeMatchRefund = "match_refund"
)

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}
