package services

import (
	"fmt"
	"time"

	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"gorm.io/gorm"
)

// RoomService runs code-based private pairing: the host opens a room and
// shares its code, one guest joins by code. Rooms are two-player only.
type RoomService struct {
	db           *gorm.DB
	roomRepo     *repositories.RoomRepository
	queueRepo    *repositories.QueueRepository
	matchRepo    *repositories.MatchRepository
	walletRepo   *repositories.WalletRepository
	settingsRepo *repositories.SettingsRepository
	matchSvc     *MatchService
	connSvc      *ConnectionService
	cfg          *config.Config
}

func NewRoomService(
	db *gorm.DB,
	roomRepo *repositories.RoomRepository,
	queueRepo *repositories.QueueRepository,
	matchRepo *repositories.MatchRepository,
	walletRepo *repositories.WalletRepository,
	settingsRepo *repositories.SettingsRepository,
	matchSvc *MatchService,
	connSvc *ConnectionService,
	cfg *config.Config,
) *RoomService {
	return &RoomService{
		db:           db,
		roomRepo:     roomRepo,
		queueRepo:    queueRepo,
		matchRepo:    matchRepo,
		walletRepo:   walletRepo,
		settingsRepo: settingsRepo,
		matchSvc:     matchSvc,
		connSvc:      connSvc,
		cfg:          cfg,
	}
}

// RoomStatus is the client-facing snapshot of one room.
type RoomStatus struct {
	Code    string `json:"code"`
	ModeKey string `json:"mode_key"`
	Fee     int64  `json:"fee"`
	Status  string `json:"status"`
	HostID  uint   `json:"host_id"`
	MatchID uint   `json:"match_id,omitempty"`
}

// Create opens a room for the mode, escrowing the host's fee.
func (s *RoomService) Create(userID uint, connectionID, modeKey string) (*RoomStatus, error) {
	mode, err := models.ParseModeKey(modeKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid mode")
	}
	if mode.GroupSize != 2 {
		return nil, errors.New(errors.ErrCodeValidation, "rooms are two-player")
	}

	if err := s.requireOnline(); err != nil {
		return nil, err
	}

	var status RoomStatus
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.connSvc.RequireActive(tx, userID, connectionID); err != nil {
			return err
		}
		if err := checkNoCommitments(tx, s.matchRepo, s.queueRepo, s.roomRepo, userID); err != nil {
			return err
		}

		desc := fmt.Sprintf("Entry fee for room (%s)", mode.Key())
		if _, err := s.walletRepo.DebitTx(tx, userID, mode.Fee(), models.TxTypeRoomEntry, desc); err != nil {
			return err
		}

		room := &models.Room{
			ModeKey: mode.Key(),
			Fee:     mode.Fee(),
			CodeLen: mode.CodeLen(),
			HostID:  userID,
			Status:  models.RoomStatusWaiting,
		}
		if err := s.roomRepo.Create(tx, room); err != nil {
			return err
		}

		status = RoomStatus{
			Code:    room.Code,
			ModeKey: room.ModeKey,
			Fee:     room.Fee,
			Status:  room.Status,
			HostID:  room.HostID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("room created", "code", status.Code, "mode_key", status.ModeKey, "host", userID)
	return &status, nil
}

// Join pairs the caller into a waiting room by code and starts the match.
func (s *RoomService) Join(userID uint, connectionID, code string) (*RoomStatus, error) {
	if err := s.requireOnline(); err != nil {
		return nil, err
	}

	var status RoomStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.connSvc.RequireActive(tx, userID, connectionID); err != nil {
			return err
		}
		if err := checkNoCommitments(tx, s.matchRepo, s.queueRepo, s.roomRepo, userID); err != nil {
			return err
		}

		room, err := s.roomRepo.GetByCodeForUpdate(tx, code)
		if err != nil {
			return err
		}
		if room.Status != models.RoomStatusWaiting {
			return errors.New(errors.ErrCodeNotFound, "room is no longer open")
		}
		if room.HostID == userID {
			return errors.New(errors.ErrCodeValidation, "cannot join your own room")
		}
		if s.stale(room) {
			if err := s.expireRoom(tx, room); err != nil {
				return err
			}
			return errors.New(errors.ErrCodeNotFound, "room has expired")
		}

		mode, err := models.ParseModeKey(room.ModeKey)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "corrupt room mode")
		}

		desc := fmt.Sprintf("Entry fee for room %s", room.Code)
		if _, err := s.walletRepo.DebitTx(tx, userID, room.Fee, models.TxTypeRoomEntry, desc); err != nil {
			return err
		}

		match, err := s.matchSvc.CreateTx(tx, mode, []uint{room.HostID, userID}, time.Now().UnixMilli())
		if err != nil {
			return err
		}
		flipped, err := s.roomRepo.Match(tx, room.ID, userID, match.ID)
		if err != nil {
			return err
		}
		if !flipped {
			return errors.New(errors.ErrCodeAlreadyExists, "room just filled")
		}

		status = RoomStatus{
			Code:    room.Code,
			ModeKey: room.ModeKey,
			Fee:     room.Fee,
			Status:  models.RoomStatusMatched,
			HostID:  room.HostID,
			MatchID: match.ID,
		}
		logger.Info("room paired", "code", room.Code, "match_id", match.ID, "host", room.HostID, "guest", userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Status polls a room by code. The code is the capability: anyone holding
// it may look, which is what a guest does before committing a fee. A stale
// waiting room expires on the poll.
func (s *RoomService) Status(code string) (*RoomStatus, error) {
	room, err := s.roomRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}

	if room.Status == models.RoomStatusWaiting && s.stale(room) {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			locked, err := s.roomRepo.GetByCodeForUpdate(tx, code)
			if err != nil {
				return err
			}
			return s.expireRoom(tx, locked)
		})
		if err != nil {
			return nil, err
		}
		room.Status = models.RoomStatusCancelled
	}

	return &RoomStatus{
		Code:    room.Code,
		ModeKey: room.ModeKey,
		Fee:     room.Fee,
		Status:  room.Status,
		HostID:  room.HostID,
		MatchID: room.MatchID,
	}, nil
}

// Cancel closes the host's waiting room and refunds the fee.
func (s *RoomService) Cancel(userID uint, code string) (*RoomStatus, error) {
	var status RoomStatus
	err := s.db.Transaction(func(tx *gorm.DB) error {
		room, err := s.roomRepo.GetByCodeForUpdate(tx, code)
		if err != nil {
			return err
		}
		if room.HostID != userID {
			return errors.New(errors.ErrCodeForbidden, "not your room")
		}
		if room.Status == models.RoomStatusMatched {
			return errors.New(errors.ErrCodeAlreadyInMatch, "room was already paired")
		}

		flipped, err := s.roomRepo.Cancel(tx, room.ID)
		if err != nil {
			return err
		}
		if flipped {
			desc := fmt.Sprintf("Room refund (%s)", models.CancelReasonUser)
			if _, err := s.walletRepo.CreditTx(tx, room.HostID, room.Fee, models.TxTypeRoomRefund, desc); err != nil {
				return err
			}
		}

		status = RoomStatus{
			Code:    room.Code,
			ModeKey: room.ModeKey,
			Fee:     room.Fee,
			Status:  models.RoomStatusCancelled,
			HostID:  room.HostID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *RoomService) requireOnline() error {
	enabled, err := s.settingsRepo.OnlineEnabled()
	if err != nil {
		return err
	}
	if !enabled {
		return errors.New(errors.ErrCodeOnlineDisabled, "online play is temporarily disabled")
	}
	return nil
}

func (s *RoomService) stale(room *models.Room) bool {
	return time.Since(room.CreatedAt) >= time.Duration(s.cfg.PrePlayStaleMs)*time.Millisecond
}

// expireRoom cancels a stale waiting room and refunds the host.
func (s *RoomService) expireRoom(tx *gorm.DB, room *models.Room) error {
	flipped, err := s.roomRepo.Cancel(tx, room.ID)
	if err != nil {
		return err
	}
	if !flipped {
		return nil
	}
	desc := fmt.Sprintf("Room refund (%s)", models.CancelReasonTimeout)
	_, err = s.walletRepo.CreditTx(tx, room.HostID, room.Fee, models.TxTypeRoomRefund, desc)
	return err
}
