package repositories

import (
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetByUserForUpdate loads the user's connection row under lock, or nil.
func (r *ConnectionRepository) GetByUserForUpdate(tx *gorm.DB, userID uint) (*models.Connection, error) {
	var conn models.Connection
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&conn).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get connection")
	}
	return &conn, nil
}

func (r *ConnectionRepository) Create(tx *gorm.DB, conn *models.Connection) error {
	if err := tx.Create(conn).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create connection")
	}
	return nil
}

func (r *ConnectionRepository) Save(tx *gorm.DB, conn *models.Connection) error {
	if err := tx.Save(conn).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save connection")
	}
	return nil
}
