package repositories

import (
	"fmt"

	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the escrow ledger adapter over the Account/Wallet
// store. Debits and credits run on a caller-supplied transaction handle so
// every coin move shares the transaction of the queue/room/match mutation it
// belongs to: both happen or neither does.
type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// DebitTx deducts coins inside tx, locking the user row first. Insufficient
// balance fails without any write. Returns the new balance.
func (r *WalletRepository) DebitTx(tx *gorm.DB, userID uint, amount int64, txType, description string) (int64, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get user")
	}

	if user.Balance() < amount {
		return 0, errors.New(errors.ErrCodeInsufficientFunds,
			fmt.Sprintf("insufficient coins: have %d, need %d", user.Balance(), amount))
	}

	newBalance := user.Balance() - amount
	if err := tx.Model(&user).Update("coin_balance", newBalance).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
	}

	entry := &models.CoinTransaction{
		UserID:          userID,
		Amount:          -amount,
		TransactionType: txType,
		Description:     description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write ledger entry")
	}

	return newBalance, nil
}

// CreditTx adds coins inside tx, raising the peak-balance watermark when the
// new balance exceeds it. Returns the new balance.
func (r *WalletRepository) CreditTx(tx *gorm.DB, userID uint, amount int64, txType, description string) (int64, error) {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get user")
	}

	newBalance := user.Balance() + amount
	updates := map[string]interface{}{"coin_balance": newBalance}
	if newBalance > user.PeakBalance {
		updates["peak_balance"] = newBalance
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
	}

	entry := &models.CoinTransaction{
		UserID:          userID,
		Amount:          amount,
		TransactionType: txType,
		Description:     description,
	}
	if err := tx.Create(entry).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to write ledger entry")
	}

	return newBalance, nil
}

// ApplyResultTx updates a user's statistics inside the settlement
// transaction: wins, streaks, and the per-mode win counter on a win; loss
// count and streak reset otherwise.
func (r *WalletRepository) ApplyResultTx(tx *gorm.DB, userID uint, modeKey string, won bool) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "user not found")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get user")
	}

	if won {
		user.Wins++
		user.WinStreak++
		if user.WinStreak > user.BestStreak {
			user.BestStreak = user.WinStreak
		}
		user.AddModeWin(modeKey)
	} else {
		user.Losses++
		user.WinStreak = 0
	}

	updates := map[string]interface{}{
		"wins":        user.Wins,
		"losses":      user.Losses,
		"win_streak":  user.WinStreak,
		"best_streak": user.BestStreak,
		"mode_wins":   user.ModeWins,
	}
	if err := tx.Model(&user).Updates(updates).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update stats")
	}

	return nil
}

// GetBalance retrieves a user's current coin balance, clamped to zero.
func (r *WalletRepository) GetBalance(userID uint) (int64, error) {
	var user models.User
	result := r.db.First(&user, userID)

	if result.Error == gorm.ErrRecordNotFound {
		return 0, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get balance")
	}

	return user.Balance(), nil
}

// GetTransactionHistory retrieves a user's most recent ledger entries.
func (r *WalletRepository) GetTransactionHistory(userID uint, limit int) ([]models.CoinTransaction, error) {
	var transactions []models.CoinTransaction
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get transaction history")
	}

	return transactions, nil
}
