package repositories

import (
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(tx *gorm.DB, match *models.Match) error {
	if err := tx.Create(match).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create match")
	}
	return nil
}

// GetForUpdate loads a match under an exclusive row lock. Every
// read-then-write state transition goes through this, so concurrent requests
// touching the same match serialize instead of racing.
func (r *MatchRepository) GetForUpdate(tx *gorm.DB, matchID uint) (*models.Match, error) {
	var match models.Match
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, matchID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "match not found")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get match")
	}
	return &match, nil
}

// Save persists the full row inside tx. LastActivityAt is left to the
// caller: presence polls persist state without counting as activity.
func (r *MatchRepository) Save(tx *gorm.DB, match *models.Match) error {
	if err := tx.Save(match).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save match")
	}
	return nil
}

// FindActiveByUser returns the user's non-terminal match, or nil.
func (r *MatchRepository) FindActiveByUser(tx *gorm.DB, userID uint) (*models.Match, error) {
	var match models.Match
	err := tx.Where(
		"(seat_a = ? OR seat_b = ? OR seat_c = ? OR seat_d = ?) AND ended_at IS NULL",
		userID, userID, userID, userID,
	).Order("created_at DESC").First(&match).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to check active match")
	}
	return &match, nil
}

// AllActiveIDs lists every non-terminal match id (admin sweep). IDs only:
// each match is then settled through its own locked transaction.
func (r *MatchRepository) AllActiveIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Match{}).
		Where("ended_at IS NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list active matches")
	}
	return ids, nil
}
