package services

import (
	"time"

	"github.com/Mesh2A/digitduel/internal/config"
	"github.com/Mesh2A/digitduel/internal/game"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/internal/repositories"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
)

// MatchService owns the match state machine. Every operation loads the match
// row under an exclusive lock, replays the lazy maintenance checks (turn
// expiry, presence, staleness), applies the requested mutation, and persists
// the re-encoded state document in the same transaction. There is no shared
// in-process state: two requests for the same match serialize on the row
// lock regardless of which instance serves them.
type MatchService struct {
	db         *gorm.DB
	matchRepo  *repositories.MatchRepository
	walletRepo *repositories.WalletRepository
	connSvc    *ConnectionService
	cfg        *config.Config
}

func NewMatchService(
	db *gorm.DB,
	matchRepo *repositories.MatchRepository,
	walletRepo *repositories.WalletRepository,
	connSvc *ConnectionService,
	cfg *config.Config,
) *MatchService {
	return &MatchService{
		db:         db,
		matchRepo:  matchRepo,
		walletRepo: walletRepo,
		connSvc:    connSvc,
		cfg:        cfg,
	}
}

// CreateTx builds a match for the given users inside the caller's
// transaction. Fees are already escrowed by the queue or room that produced
// the pairing.
func (s *MatchService) CreateTx(tx *gorm.DB, mode models.Mode, userIDs []uint, nowMs int64) (*models.Match, error) {
	if len(userIDs) != mode.GroupSize {
		return nil, errors.New(errors.ErrCodeInternalError, "seat count does not match mode")
	}

	match := &models.Match{
		ModeKey:        mode.Key(),
		Fee:            mode.Fee(),
		CodeLen:        mode.CodeLen(),
		SeatA:          userIDs[0],
		SeatB:          userIDs[1],
		LastActivityAt: time.Now(),
	}
	if len(userIDs) == 4 {
		match.SeatC = userIDs[2]
		match.SeatD = userIDs[3]
	}

	if mode.Variant != models.VariantCustom {
		match.Answer = game.GenerateAnswer(mode.CodeLen())
		if match.Answer == "" {
			return nil, errors.New(errors.ErrCodeInternalError, "failed to generate answer")
		}
	}

	state := models.NewMatchState(mode, match.SeatLetters(), nowMs)
	if state.Props != nil {
		state.Props.Deck = game.DealDeck()
	}
	if state.Phase == models.PhasePlay {
		// Group normal games skip the pre-play gate entirely.
		seedPresence(state, nowMs)
		match.TurnUserID = game.FirstTurn(match.Seats(), state.Finished)
		match.TurnStartedAt = nowMs
	}

	doc, err := state.Encode()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode state")
	}
	match.StateDoc = doc

	if err := s.matchRepo.Create(tx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// ActiveForUser returns the id of the user's current non-terminal match, or
// nil when every match of theirs has settled.
func (s *MatchService) ActiveForUser(userID uint) (*uint, error) {
	match, err := s.matchRepo.FindActiveByUser(s.db, userID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, nil
	}
	id := match.ID
	return &id, nil
}

// ForceRefund voids a live match and returns every fee, in its own locked
// transaction. Used by the admin sweep; a match that settled in the meantime
// is left alone.
func (s *MatchService) ForceRefund(matchID uint, reason string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		match, err := s.matchRepo.GetForUpdate(tx, matchID)
		if err != nil {
			return err
		}
		if match.Ended() {
			return nil
		}

		state, err := models.DecodeState(match.StateDoc)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode match state")
		}
		if err := s.settleRefund(tx, match, state, reason); err != nil {
			return err
		}

		doc, err := state.Encode()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode state")
		}
		match.StateDoc = doc
		return s.matchRepo.Save(tx, match)
	})
}

// opFunc is one gameplay mutation, already holding the match lock with
// maintenance applied and the match known to be live.
type opFunc func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error

// run is the shared transaction skeleton: validate the connection, lock the
// match, replay maintenance, apply op, persist, and render the caller's
// redacted view. A nil op is a plain poll that only refreshes presence.
func (s *MatchService) run(userID uint, connectionID string, matchID uint, op opFunc) (*MatchView, error) {
	var view *MatchView
	var opErr error

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.connSvc.RequireActive(tx, userID, connectionID); err != nil {
			return err
		}

		match, err := s.matchRepo.GetForUpdate(tx, matchID)
		if err != nil {
			return err
		}
		seat, ok := match.SeatOf(userID)
		if !ok {
			return errors.New(errors.ErrCodeForbidden, "not a participant of this match")
		}

		state, err := models.DecodeState(match.StateDoc)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to decode match state")
		}

		nowMs := time.Now().UnixMilli()
		dirty, failed, err := s.applyLocked(tx, match, state, seat, nowMs, op)
		if err != nil {
			return err
		}
		opErr = failed

		if dirty {
			if opErr == nil {
				doc, err := state.Encode()
				if err != nil {
					return errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode state")
				}
				match.StateDoc = doc
			}
			if err := s.matchRepo.Save(tx, match); err != nil {
				return err
			}
		}

		if opErr == nil {
			view = s.buildView(match, state, userID, nowMs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	return view, nil
}

// applyLocked replays maintenance and applies op against the locked match.
// The op error comes back separately from hard errors so that maintenance
// outlives a rejected op: an expired turn or a grace forfeit resolved on this
// request still commits, with the op's own mutations rolled back to the
// maintained snapshot. Internal failures abort the whole transaction, since
// the op may have written through tx by then.
func (s *MatchService) applyLocked(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64, op opFunc) (bool, error, error) {
	dirty, err := s.maintain(tx, match, state, nowMs)
	if err != nil {
		return false, nil, err
	}

	var maintained models.Match
	if dirty {
		doc, err := state.Encode()
		if err != nil {
			return false, nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to encode state")
		}
		match.StateDoc = doc
		maintained = *match
	}

	if op == nil {
		if !match.Ended() && state.Touch(seat, nowMs, s.cfg.PresenceThrottleMs) {
			dirty = true
		}
		return dirty, nil, nil
	}

	var opErr error
	if match.Ended() {
		opErr = errors.New(errors.ErrCodeWrongPhase, "match has ended")
	} else {
		opErr = op(tx, match, state, seat, nowMs)
	}
	if opErr != nil {
		if errors.Code(opErr) == errors.ErrCodeInternalError {
			return false, nil, opErr
		}
		if dirty {
			*match = maintained
		}
		return dirty, opErr, nil
	}

	match.LastActivityAt = time.Now()
	return true, nil, nil
}

// View returns the caller's redacted view of a match. Polling this endpoint
// doubles as the presence heartbeat.
func (s *MatchService) View(userID uint, connectionID string, matchID uint) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, nil)
}

func seedPresence(state *models.MatchState, nowMs int64) {
	for _, presence := range state.Presence {
		if presence.LastSeenAt == 0 {
			presence.LastSeenAt = nowMs
		}
	}
}
