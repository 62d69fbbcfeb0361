package services

import (
	"time"

	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"github.com/Mesh2A/digitduel/pkg/utils"
	"gorm.io/gorm"
)

// connectionIDLen is the length of opaque per-session tokens.
const connectionIDLen = 24

// ConnectionService maintains the one-live-session-per-user invariant. A
// user's gameplay requests must carry the connection id issued here; opening
// a second session invalidates the first one immediately.
type ConnectionService struct {
	db       *gorm.DB
	connRepo *repositories.ConnectionRepository
	cfg      *config.Config
}

func NewConnectionService(db *gorm.DB, connRepo *repositories.ConnectionRepository, cfg *config.Config) *ConnectionService {
	return &ConnectionService{db: db, connRepo: connRepo, cfg: cfg}
}

// ConnectResult reports the issued connection id and how it came to be.
type ConnectResult struct {
	ConnectionID string `json:"connection_id"`
	Event        string `json:"event"`
}

// Connect establishes the user's session. A hint matching a connection that
// disconnected within the reconnect window reactivates the same id; anything
// else issues a fresh id that supersedes whatever came before.
func (s *ConnectionService) Connect(userID uint, hintID string) (*ConnectResult, error) {
	var result ConnectResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		conn, err := s.connRepo.GetByUserForUpdate(tx, userID)
		if err != nil {
			return err
		}

		if conn == nil {
			newID := utils.GenerateRandomID(connectionIDLen)
			if newID == "" {
				return errors.New(errors.ErrCodeInternalError, "failed to generate connection id")
			}
			result = ConnectResult{ConnectionID: newID, Event: models.ConnEventCreated}
			return s.connRepo.Create(tx, &models.Connection{
				UserID:       userID,
				ConnectionID: newID,
				Status:       models.ConnStatusActive,
				LastSeenAt:   now,
			})
		}

		if hintID != "" && hintID == conn.ConnectionID &&
			conn.Status == models.ConnStatusDisconnected &&
			conn.DisconnectedAt != nil &&
			now.Sub(*conn.DisconnectedAt) <= s.reconnectWindow() {
			conn.Status = models.ConnStatusActive
			conn.LastSeenAt = now
			conn.DisconnectedAt = nil
			if err := s.connRepo.Save(tx, conn); err != nil {
				return err
			}
			result = ConnectResult{ConnectionID: conn.ConnectionID, Event: models.ConnEventReconnect}
			return nil
		}

		newID := utils.GenerateRandomID(connectionIDLen)
		if newID == "" {
			return errors.New(errors.ErrCodeInternalError, "failed to generate connection id")
		}
		if conn.Status == models.ConnStatusActive {
			conn.SupersededAt = &now
		}
		conn.ConnectionID = newID
		conn.Status = models.ConnStatusActive
		conn.LastSeenAt = now
		conn.DisconnectedAt = nil
		if err := s.connRepo.Save(tx, conn); err != nil {
			return err
		}

		result = ConnectResult{ConnectionID: newID, Event: models.ConnEventSupersede}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("connection established", "user_id", userID, "event", result.Event)
	return &result, nil
}

// Disconnect marks the user's session as cleanly closed. A stale id from a
// superseded session is ignored rather than rejected: closing a dead tab must
// never kill the live one.
func (s *ConnectionService) Disconnect(userID uint, connectionID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		conn, err := s.connRepo.GetByUserForUpdate(tx, userID)
		if err != nil {
			return err
		}
		if conn == nil || conn.ConnectionID != connectionID || conn.Status != models.ConnStatusActive {
			return nil
		}

		now := time.Now()
		conn.Status = models.ConnStatusDisconnected
		conn.DisconnectedAt = &now
		return s.connRepo.Save(tx, conn)
	})
}

// RequireActive validates a gameplay request's connection id inside the
// caller's transaction and refreshes the session's last-seen time. The three
// failure modes are distinct: never connected, superseded by another
// session, and expired after the reconnect window.
func (s *ConnectionService) RequireActive(tx *gorm.DB, userID uint, connectionID string) error {
	conn, err := s.connRepo.GetByUserForUpdate(tx, userID)
	if err != nil {
		return err
	}
	if conn == nil {
		return errors.New(errors.ErrCodeUnauthorized, "never connected")
	}
	if conn.ConnectionID != connectionID {
		return errors.New(errors.ErrCodeStaleConnection, "superseded by another connection")
	}
	if conn.Status != models.ConnStatusActive {
		if conn.Status == models.ConnStatusDisconnected && conn.DisconnectedAt != nil &&
			time.Since(*conn.DisconnectedAt) > s.reconnectWindow() {
			conn.Status = models.ConnStatusExpired
			_ = s.connRepo.Save(tx, conn)
		}
		return errors.New(errors.ErrCodeConnectionExpired, "connection expired, reconnect first")
	}

	conn.LastSeenAt = time.Now()
	return s.connRepo.Save(tx, conn)
}

func (s *ConnectionService) reconnectWindow() time.Duration {
	return time.Duration(s.cfg.ReconnectWindowMs) * time.Millisecond
}
