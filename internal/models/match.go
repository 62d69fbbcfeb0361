package models

import (
	"time"
)

// Match is the central entity. Rows are never deleted; a terminal match is
// kept as an append-only history record. Once EndedAt is set the row is
// immutable apart from the one settlement write that produced it.
type Match struct {
	ID      uint   `gorm:"primaryKey"`
	ModeKey string `gorm:"type:varchar(40);not null;index"`
	Fee     int64  `gorm:"not null"`
	CodeLen int    `gorm:"not null"`

	SeatA uint `gorm:"not null;index"`
	SeatB uint `gorm:"not null;index"`
	SeatC uint `gorm:"default:0;index"`
	SeatD uint `gorm:"default:0;index"`

	// Hidden digit code. Empty for the custom variant, whose targets live in
	// the state document's secrets.
	Answer string `gorm:"type:varchar(6)"`

	TurnUserID    uint  `gorm:"default:0;index"`
	TurnStartedAt int64 `gorm:"default:0"` // epoch ms, 0 = not started

	WinnerUserID *uint      `gorm:"index"`
	EndedAt      *time.Time `gorm:"index"`

	StateDoc string `gorm:"type:jsonb;not null"`

	LastActivityAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Match) TableName() string {
	return "matches"
}

// Ended reports whether the match reached a terminal state.
func (m *Match) Ended() bool {
	return m.EndedAt != nil
}

// Seats returns the seated user ids in seat order.
func (m *Match) Seats() []uint {
	seats := []uint{m.SeatA, m.SeatB}
	if m.SeatC != 0 {
		seats = append(seats, m.SeatC)
	}
	if m.SeatD != 0 {
		seats = append(seats, m.SeatD)
	}
	return seats
}

// SeatCount returns 2 or 4.
func (m *Match) SeatCount() int {
	return len(m.Seats())
}

// SeatOf returns the typed seat a user occupies, or false when the user is
// not seated in this match.
func (m *Match) SeatOf(userID uint) (Seat, bool) {
	switch userID {
	case 0:
		return "", false
	case m.SeatA:
		return SeatA, true
	case m.SeatB:
		return SeatB, true
	case m.SeatC:
		return SeatC, true
	case m.SeatD:
		return SeatD, true
	}
	return "", false
}

// UserAt returns the user seated at a position, 0 when the seat is empty.
func (m *Match) UserAt(seat Seat) uint {
	switch seat {
	case SeatA:
		return m.SeatA
	case SeatB:
		return m.SeatB
	case SeatC:
		return m.SeatC
	case SeatD:
		return m.SeatD
	}
	return 0
}

// SeatLetters returns the occupied seats in order.
func (m *Match) SeatLetters() []Seat {
	seats := []Seat{SeatA, SeatB}
	if m.SeatC != 0 {
		seats = append(seats, SeatC)
	}
	if m.SeatD != 0 {
		seats = append(seats, SeatD)
	}
	return seats
}
