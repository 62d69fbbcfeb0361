package repositories

import (
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(tx *gorm.DB, room *models.Room) error {
	if err := tx.Create(room).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create room")
	}
	return nil
}

// GetByCodeForUpdate loads a room by code under an exclusive row lock.
func (r *RoomRepository) GetByCodeForUpdate(tx *gorm.DB, code string) (*models.Room, error) {
	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&room).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "room not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get room")
	}
	return &room, nil
}

// GetByCode retrieves a room without locking (status polls).
func (r *RoomRepository) GetByCode(code string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("code = ?", code).First(&room).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "room not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get room")
	}
	return &room, nil
}

// FindWaitingByHost returns the host's waiting room under lock, or nil.
func (r *RoomRepository) FindWaitingByHost(tx *gorm.DB, hostID uint) (*models.Room, error) {
	var room models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("host_id = ? AND status = ?", hostID, models.RoomStatusWaiting).
		First(&room).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check rooms")
	}
	return &room, nil
}

// Match consumes a waiting room into a match. The guarded transition means a
// racing second guest observes zero rows and backs off.
func (r *RoomRepository) Match(tx *gorm.DB, roomID, guestID, matchID uint) (bool, error) {
	result := tx.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomStatusWaiting).
		Updates(map[string]interface{}{
			"status":   models.RoomStatusMatched,
			"guest_id": guestID,
			"match_id": matchID,
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to match room")
	}
	return result.RowsAffected > 0, nil
}

// Cancel flips a waiting room to cancelled; the transition is the refund gate.
func (r *RoomRepository) Cancel(tx *gorm.DB, roomID uint) (bool, error) {
	result := tx.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomStatusWaiting).
		Update("status", models.RoomStatusCancelled)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to cancel room")
	}
	return result.RowsAffected > 0, nil
}

// AllWaiting locks every waiting room (admin sweep).
func (r *RoomRepository) AllWaiting(tx *gorm.DB) ([]models.Room, error) {
	var rooms []models.Room
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", models.RoomStatusWaiting).
		Find(&rooms).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list waiting rooms")
	}
	return rooms, nil
}
