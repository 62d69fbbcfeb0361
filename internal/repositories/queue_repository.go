package repositories

import (
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueueRepository struct {
	db *gorm.DB
}

func NewQueueRepository(db *gorm.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// Create inserts a new waiting entry inside tx.
func (r *QueueRepository) Create(tx *gorm.DB, entry *models.QueueEntry) error {
	if err := tx.Create(entry).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create queue entry")
	}
	return nil
}

// GetForUpdate loads an entry under an exclusive row lock.
func (r *QueueRepository) GetForUpdate(tx *gorm.DB, queueID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&entry, queueID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "queue entry not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get queue entry")
	}
	return &entry, nil
}

// FindWaitingByUser returns the user's waiting entry under lock, or nil.
func (r *QueueRepository) FindWaitingByUser(tx *gorm.DB, userID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND status = ?", userID, models.QueueStatusWaiting).
		First(&entry).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check queue")
	}
	return &entry, nil
}

// ClaimWaiting locks up to limit waiting entries with the same mode key,
// oldest first. SKIP LOCKED keeps concurrent joiners for the same pool from
// serializing on each other's rows while never double-claiming an opponent.
func (r *QueueRepository) ClaimWaiting(tx *gorm.DB, modeKey string, excludeUserID uint, limit int) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("mode_key = ? AND status = ? AND user_id != ?", modeKey, models.QueueStatusWaiting, excludeUserID).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to claim queue entries")
	}
	return entries, nil
}

// MarkMatched consumes claimed entries into a match.
func (r *QueueRepository) MarkMatched(tx *gorm.DB, entryIDs []uint, matchID uint) error {
	err := tx.Model(&models.QueueEntry{}).
		Where("id IN ?", entryIDs).
		Updates(map[string]interface{}{
			"status":   models.QueueStatusMatched,
			"match_id": matchID,
		}).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to mark entries matched")
	}
	return nil
}

// Cancel flips a waiting entry to cancelled. The guarded transition is the
// single refund gate; zero rows affected means someone else already moved it.
func (r *QueueRepository) Cancel(tx *gorm.DB, queueID uint) (bool, error) {
	result := tx.Model(&models.QueueEntry{}).
		Where("id = ? AND status = ?", queueID, models.QueueStatusWaiting).
		Update("status", models.QueueStatusCancelled)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to cancel queue entry")
	}
	return result.RowsAffected > 0, nil
}

// Get retrieves an entry without locking (status polls).
func (r *QueueRepository) Get(queueID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := r.db.First(&entry, queueID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "queue entry not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get queue entry")
	}
	return &entry, nil
}

// WaitingCount returns the number of waiting entries for a mode key.
func (r *QueueRepository) WaitingCount(modeKey string) (int64, error) {
	var count int64
	err := r.db.Model(&models.QueueEntry{}).
		Where("mode_key = ? AND status = ?", modeKey, models.QueueStatusWaiting).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count queue")
	}
	return count, nil
}

// AllWaiting locks every waiting entry (admin sweep).
func (r *QueueRepository) AllWaiting(tx *gorm.DB) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", models.QueueStatusWaiting).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list waiting entries")
	}
	return entries, nil
}
