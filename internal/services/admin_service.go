package services

import (
	"fmt"

	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"gorm.io/gorm"
)

// AdminService owns the global gameplay toggle. Disabling online play is a
// full sweep: every waiting queue entry and room is cancelled with a refund,
// and every live match is voided with a refund, each match in its own locked
// transaction so one bad row cannot wedge the rest.
type AdminService struct {
	db           *gorm.DB
	settingsRepo *repositories.SettingsRepository
	queueRepo    *repositories.QueueRepository
	roomRepo     *repositories.RoomRepository
	matchRepo    *repositories.MatchRepository
	walletRepo   *repositories.WalletRepository
	matchSvc     *MatchService
}

func NewAdminService(
	db *gorm.DB,
	settingsRepo *repositories.SettingsRepository,
	queueRepo *repositories.QueueRepository,
	roomRepo *repositories.RoomRepository,
	matchRepo *repositories.MatchRepository,
	walletRepo *repositories.WalletRepository,
	matchSvc *MatchService,
) *AdminService {
	return &AdminService{
		db:           db,
		settingsRepo: settingsRepo,
		queueRepo:    queueRepo,
		roomRepo:     roomRepo,
		matchRepo:    matchRepo,
		walletRepo:   walletRepo,
		matchSvc:     matchSvc,
	}
}

// OnlineEnabled reports the current toggle.
func (s *AdminService) OnlineEnabled() (bool, error) {
	return s.settingsRepo.OnlineEnabled()
}

// SetOnlineEnabled flips the toggle. Turning it off sweeps everything in
// flight with refunds; new joins are rejected by the flag itself.
func (s *AdminService) SetOnlineEnabled(enabled bool) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.settingsRepo.SetOnlineEnabled(tx, enabled); err != nil {
			return err
		}
		if enabled {
			return nil
		}
		if err := s.sweepQueue(tx); err != nil {
			return err
		}
		return s.sweepRooms(tx)
	})
	if err != nil {
		return err
	}
	if enabled {
		logger.Info("online play enabled")
		return nil
	}

	return s.sweepMatches()
}

func (s *AdminService) sweepQueue(tx *gorm.DB) error {
	entries, err := s.queueRepo.AllWaiting(tx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		flipped, err := s.queueRepo.Cancel(tx, entry.ID)
		if err != nil {
			return err
		}
		if !flipped {
			continue
		}
		desc := fmt.Sprintf("Queue refund (%s)", models.CancelReasonAdmin)
		if _, err := s.walletRepo.CreditTx(tx, entry.UserID, entry.Fee, models.TxTypeQueueRefund, desc); err != nil {
			return err
		}
	}
	logger.Info("queue swept", "entries", len(entries))
	return nil
}

func (s *AdminService) sweepRooms(tx *gorm.DB) error {
	rooms, err := s.roomRepo.AllWaiting(tx)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		flipped, err := s.roomRepo.Cancel(tx, room.ID)
		if err != nil {
			return err
		}
		if !flipped {
			continue
		}
		desc := fmt.Sprintf("Room refund (%s)", models.CancelReasonAdmin)
		if _, err := s.walletRepo.CreditTx(tx, room.HostID, room.Fee, models.TxTypeRoomRefund, desc); err != nil {
			return err
		}
	}
	logger.Info("rooms swept", "rooms", len(rooms))
	return nil
}

// sweepMatches voids live matches one at a time. Failures are logged and
// skipped: the flag is already off, so a stuck match can be retried by
// flipping again.
func (s *AdminService) sweepMatches() error {
	ids, err := s.matchRepo.AllActiveIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.matchSvc.ForceRefund(id, models.EndedReasonDisabled); err != nil {
			logger.Error("match sweep failed", "match_id", id, "error", err)
		}
	}
	logger.Info("matches swept", "matches", len(ids))
	return nil
}
