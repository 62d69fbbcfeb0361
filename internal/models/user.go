package models

import (
	"encoding/json"
	"time"
)

// User is the engine's view of the Account/Wallet store row. The wallet and
// statistics columns live in the same database so escrow moves can share the
// engine's transactions.
type User struct {
	ID          uint   `gorm:"primaryKey"`
	CoinBalance int64  `gorm:"default:0;not null"`
	PeakBalance int64  `gorm:"default:0;not null"`
	Wins        int    `gorm:"default:0;not null"`
	Losses      int    `gorm:"default:0;not null"`
	WinStreak   int    `gorm:"default:0;not null"`
	BestStreak  int    `gorm:"default:0;not null"`
	ModeWins    string `gorm:"type:text;default:'{}'"` // JSON: {"easy:normal:2": 3}

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// Balance returns the coin balance clamped to zero. Business logic never
// observes a negative balance even if a row was adjusted out of band.
func (u *User) Balance() int64 {
	if u.CoinBalance < 0 {
		return 0
	}
	return u.CoinBalance
}

// ModeWinCounts decodes the per-mode win counters.
func (u *User) ModeWinCounts() map[string]int {
	counts := make(map[string]int)
	if u.ModeWins == "" {
		return counts
	}
	if err := json.Unmarshal([]byte(u.ModeWins), &counts); err != nil {
		return make(map[string]int)
	}
	return counts
}

// AddModeWin increments the win counter for a mode key and re-encodes.
func (u *User) AddModeWin(modeKey string) {
	counts := u.ModeWinCounts()
	counts[modeKey]++
	encoded, err := json.Marshal(counts)
	if err != nil {
		return
	}
	u.ModeWins = string(encoded)
}
