package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"gorm.io/gorm"
)

// claimOverscan is how many extra entries a claim locks so that expired
// entries found in the way can be swept without starving the pairing.
const claimOverscan = 8

// QueueService runs FIFO matchmaking over the shared store. Joining both
// enqueues and attempts the pairing in one transaction: whoever completes a
// pool starts the match, and SKIP LOCKED keeps concurrent joiners from
// fighting over the same opponents.
type QueueService struct {
	db           *gorm.DB
	queueRepo    *repositories.QueueRepository
	roomRepo     *repositories.RoomRepository
	matchRepo    *repositories.MatchRepository
	walletRepo   *repositories.WalletRepository
	settingsRepo *repositories.SettingsRepository
	matchSvc     *MatchService
	connSvc      *ConnectionService
	lobby        *LobbyService
	cfg          *config.Config
}

func NewQueueService(
	db *gorm.DB,
	queueRepo *repositories.QueueRepository,
	roomRepo *repositories.RoomRepository,
	matchRepo *repositories.MatchRepository,
	walletRepo *repositories.WalletRepository,
	settingsRepo *repositories.SettingsRepository,
	matchSvc *MatchService,
	connSvc *ConnectionService,
	lobby *LobbyService,
	cfg *config.Config,
) *QueueService {
	return &QueueService{
		db:           db,
		queueRepo:    queueRepo,
		roomRepo:     roomRepo,
		matchRepo:    matchRepo,
		walletRepo:   walletRepo,
		settingsRepo: settingsRepo,
		matchSvc:     matchSvc,
		connSvc:      connSvc,
		lobby:        lobby,
		cfg:          cfg,
	}
}

// QueueStatus is the client-facing snapshot of one queue entry.
type QueueStatus struct {
	QueueID uint   `json:"queue_id"`
	ModeKey string `json:"mode_key"`
	Status  string `json:"status"`
	MatchID uint   `json:"match_id,omitempty"`
}

// Join escrows the fee and enqueues the user, pairing immediately when
// enough compatible opponents are already waiting.
func (s *QueueService) Join(ctx context.Context, userID uint, connectionID, modeKey string) (*QueueStatus, error) {
	mode, err := models.ParseModeKey(modeKey)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid mode")
	}

	enabled, err := s.settingsRepo.OnlineEnabled()
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, errors.New(errors.ErrCodeOnlineDisabled, "online play is temporarily disabled")
	}

	var status QueueStatus
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.connSvc.RequireActive(tx, userID, connectionID); err != nil {
			return err
		}
		if err := requireNoActiveMatch(tx, s.matchRepo, userID); err != nil {
			return err
		}
		if err := requireNoOpenRoom(tx, s.roomRepo, userID); err != nil {
			return err
		}

		// A same-mode entry is re-used idempotently; a different-mode one is
		// cancelled and refunded before the new join proceeds.
		existing, err := s.queueRepo.FindWaitingByUser(tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.ModeKey == mode.Key() {
				status = QueueStatus{QueueID: existing.ID, ModeKey: existing.ModeKey, Status: existing.Status}
				return nil
			}
			if err := s.refundCancelled(tx, existing, models.CancelReasonReplace); err != nil {
				return err
			}
		}

		desc := fmt.Sprintf("Entry fee for %s queue", mode.Key())
		if _, err := s.walletRepo.DebitTx(tx, userID, mode.Fee(), models.TxTypeQueueEntry, desc); err != nil {
			return err
		}

		entry := &models.QueueEntry{
			UserID:  userID,
			ModeKey: mode.Key(),
			Fee:     mode.Fee(),
			CodeLen: mode.CodeLen(),
			Status:  models.QueueStatusWaiting,
		}
		if err := s.queueRepo.Create(tx, entry); err != nil {
			return err
		}
		status = QueueStatus{QueueID: entry.ID, ModeKey: entry.ModeKey, Status: entry.Status}

		opponents, err := s.claimFresh(tx, mode, userID)
		if err != nil {
			return err
		}
		if len(opponents) < mode.GroupSize-1 {
			return nil
		}

		userIDs := make([]uint, 0, mode.GroupSize)
		entryIDs := make([]uint, 0, mode.GroupSize)
		for _, opponent := range opponents {
			userIDs = append(userIDs, opponent.UserID)
			entryIDs = append(entryIDs, opponent.ID)
		}
		userIDs = append(userIDs, userID)
		entryIDs = append(entryIDs, entry.ID)

		match, err := s.matchSvc.CreateTx(tx, mode, userIDs, time.Now().UnixMilli())
		if err != nil {
			return err
		}
		if err := s.queueRepo.MarkMatched(tx, entryIDs, match.ID); err != nil {
			return err
		}

		status.Status = models.QueueStatusMatched
		status.MatchID = match.ID
		logger.Info("queue paired", "match_id", match.ID, "mode_key", mode.Key(), "players", userIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.lobby.PublishWaiting(ctx, mode.Key())
	return &status, nil
}

// claimFresh locks waiting opponents for the mode, sweeping any expired
// entries it trips over: those get cancelled and refunded instead of paired.
func (s *QueueService) claimFresh(tx *gorm.DB, mode models.Mode, excludeUserID uint) ([]models.QueueEntry, error) {
	needed := mode.GroupSize - 1
	claimed, err := s.queueRepo.ClaimWaiting(tx, mode.Key(), excludeUserID, needed+claimOverscan)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-s.cfg.QueueIdleTimeout())
	fresh := make([]models.QueueEntry, 0, needed)
	for _, entry := range claimed {
		if entry.CreatedAt.Before(cutoff) {
			if err := s.refundCancelled(tx, &entry, models.CancelReasonTimeout); err != nil {
				return nil, err
			}
			continue
		}
		if len(fresh) < needed {
			fresh = append(fresh, entry)
		}
	}
	return fresh, nil
}

// refundCancelled flips an entry to cancelled and refunds its fee. The
// guarded transition means the refund fires at most once.
func (s *QueueService) refundCancelled(tx *gorm.DB, entry *models.QueueEntry, reason string) error {
	flipped, err := s.queueRepo.Cancel(tx, entry.ID)
	if err != nil {
		return err
	}
	if !flipped {
		return nil
	}
	desc := fmt.Sprintf("Queue refund (%s)", reason)
	_, err = s.walletRepo.CreditTx(tx, entry.UserID, entry.Fee, models.TxTypeQueueRefund, desc)
	return err
}

// Status polls one entry. An entry past its waiting window expires here
// with a refund.
func (s *QueueService) Status(ctx context.Context, userID uint, queueID uint) (*QueueStatus, error) {
	entry, err := s.queueRepo.Get(queueID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, errors.New(errors.ErrCodeForbidden, "not your queue entry")
	}

	if entry.Status == models.QueueStatusWaiting &&
		time.Since(entry.CreatedAt) >= s.cfg.QueueIdleTimeout() {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			locked, err := s.queueRepo.GetForUpdate(tx, queueID)
			if err != nil {
				return err
			}
			return s.refundCancelled(tx, locked, models.CancelReasonTimeout)
		})
		if err != nil {
			return nil, err
		}
		s.lobby.PublishWaiting(ctx, entry.ModeKey)
		return &QueueStatus{QueueID: entry.ID, ModeKey: entry.ModeKey, Status: models.QueueStatusCancelled}, nil
	}

	return &QueueStatus{
		QueueID: entry.ID,
		ModeKey: entry.ModeKey,
		Status:  entry.Status,
		MatchID: entry.MatchID,
	}, nil
}

// Cancel withdraws a waiting entry and refunds the fee. An entry that was
// already paired cannot back out.
func (s *QueueService) Cancel(ctx context.Context, userID uint, queueID uint) (*QueueStatus, error) {
	var modeKey string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		entry, err := s.queueRepo.GetForUpdate(tx, queueID)
		if err != nil {
			return err
		}
		if entry.UserID != userID {
			return errors.New(errors.ErrCodeForbidden, "not your queue entry")
		}
		modeKey = entry.ModeKey

		switch entry.Status {
		case models.QueueStatusMatched:
			return errors.New(errors.ErrCodeAlreadyInMatch, "entry was already paired")
		case models.QueueStatusCancelled:
			return nil
		}

		return s.refundCancelled(tx, entry, models.CancelReasonUser)
	})
	if err != nil {
		return nil, err
	}

	s.lobby.PublishWaiting(ctx, modeKey)
	return &QueueStatus{QueueID: queueID, ModeKey: modeKey, Status: models.QueueStatusCancelled}, nil
}
