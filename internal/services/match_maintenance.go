package services

import (
	"fmt"
	"time"

	"github.com/Mesh2A/digitduel/internal/game"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"github.com/Mesh2A/digitduel/pkg/logger"
	"gorm.io/gorm"
)

// maintain replays every timer the engine does not run a background job for.
// It is called under the match row lock before any operation is interpreted,
// so an expired turn or a dead seat is resolved by whichever request happens
// to arrive next. Returns whether the state changed.
func (s *MatchService) maintain(tx *gorm.DB, match *models.Match, state *models.MatchState, nowMs int64) (bool, error) {
	if match.Ended() {
		return false, nil
	}

	switch state.Phase {
	case models.PhaseWaiting, models.PhaseSetup, models.PhaseCards:
		return s.maintainPrePlay(tx, match, state, nowMs)
	case models.PhasePlay:
		return s.maintainPlay(tx, match, state, nowMs)
	}
	return false, nil
}

func (s *MatchService) maintainPrePlay(tx *gorm.DB, match *models.Match, state *models.MatchState, nowMs int64) (bool, error) {
	// A pairing nobody moves forward refunds itself on the next look.
	if nowMs-match.CreatedAt.UnixMilli() >= s.cfg.PrePlayStaleMs {
		return true, s.settleRefund(tx, match, state, models.EndedReasonStale)
	}

	// A seat that arrived and then vanished refunds everyone once its grace
	// runs out. Seats that never arrived are covered by staleness alone.
	// The mark must persist, or the grace window restarts on every read.
	dirty := false
	for _, seat := range match.SeatLetters() {
		presence := state.Presence[seat]
		if presence == nil || presence.LastSeenAt == 0 {
			continue
		}
		if presence.DisconnectedAt == 0 && nowMs-presence.LastSeenAt >= s.cfg.DisconnectMarkMs {
			presence.DisconnectedAt = nowMs
			dirty = true
		}
		if presence.DisconnectedAt != 0 && nowMs-presence.DisconnectedAt >= s.cfg.DisconnectGraceMs {
			return true, s.settleRefund(tx, match, state, models.EndedReasonPrePlayDisconnect)
		}
	}

	// The normal duel starts its clock only once both players showed up.
	if state.Phase == models.PhaseWaiting && s.allFresh(match, state, nowMs) {
		s.enterPlay(match, state, nowMs)
		return true, nil
	}

	// The card reveal fires a beat after the last private pick landed.
	if state.Phase == models.PhaseCards && state.Props != nil &&
		len(state.Props.Pick) == match.SeatCount() &&
		state.Props.PickedAt != 0 &&
		nowMs-state.Props.PickedAt >= s.cfg.CardRevealDelayMs {
		s.enterPlay(match, state, nowMs)
		return true, nil
	}

	return dirty, nil
}

func (s *MatchService) maintainPlay(tx *gorm.DB, match *models.Match, state *models.MatchState, nowMs int64) (bool, error) {
	dirty := false

	// Missed turns pass silently, one timeout-width at a time, so a player
	// absent for three windows forfeits exactly three turns.
	for match.TurnUserID != 0 && nowMs-match.TurnStartedAt >= s.cfg.TurnTimeoutMs {
		s.advanceTurn(match, state, match.TurnStartedAt+s.cfg.TurnTimeoutMs)
		dirty = true
	}

	// Presence: quiet seats get marked, marked seats out of grace forfeit.
	for _, seat := range match.SeatLetters() {
		userID := match.UserAt(seat)
		if state.Finished(userID) {
			continue
		}
		presence := state.Presence[seat]
		if presence == nil || presence.LastSeenAt == 0 {
			continue
		}
		if presence.DisconnectedAt == 0 && nowMs-presence.LastSeenAt >= s.cfg.DisconnectMarkMs {
			presence.DisconnectedAt = nowMs
			dirty = true
		}
		if presence.DisconnectedAt != 0 && nowMs-presence.DisconnectedAt >= s.cfg.DisconnectGraceMs {
			dirty = true
			ended, err := s.forfeitSeat(tx, match, state, userID, models.EndedReasonDisconnectTimeout, nowMs)
			if err != nil || ended {
				return dirty, err
			}
		}
	}

	// A four-player table where nobody has acted for a long while settles
	// on current standings rather than lingering forever.
	if !match.Ended() && state.Kind == models.KindGroup4 &&
		nowMs-match.LastActivityAt.UnixMilli() >= s.cfg.GroupIdleStaleMs {
		return true, s.settleRanked(tx, match, state, models.EndedReasonStale)
	}

	return dirty, nil
}

// allFresh reports whether every seat has polled recently.
func (s *MatchService) allFresh(match *models.Match, state *models.MatchState, nowMs int64) bool {
	for _, seat := range match.SeatLetters() {
		presence := state.Presence[seat]
		if presence == nil || presence.LastSeenAt == 0 {
			return false
		}
		if nowMs-presence.LastSeenAt > s.cfg.PresenceFreshMs {
			return false
		}
	}
	return true
}

// enterPlay transitions into the play phase and hands out the first turn.
func (s *MatchService) enterPlay(match *models.Match, state *models.MatchState, nowMs int64) {
	state.Phase = models.PhasePlay
	seedPresence(state, nowMs)
	match.TurnUserID = game.FirstTurn(match.Seats(), state.Finished)
	match.TurnStartedAt = nowMs
}

// advanceTurn rotates to the next unfinished seat, consuming any pending
// skip effect along the way.
func (s *MatchService) advanceTurn(match *models.Match, state *models.MatchState, atMs int64) {
	seats := match.Seats()
	next := game.NextTurn(seats, match.TurnUserID, state.Finished)

	for i := 0; i < len(seats) && next != 0; i++ {
		seat, ok := match.SeatOf(next)
		if !ok || state.Props == nil || state.Props.Effects[seat] != game.CardSkipTurn {
			break
		}
		delete(state.Props.Effects, seat)
		next = game.NextTurn(seats, next, state.Finished)
	}

	match.TurnUserID = next
	match.TurnStartedAt = atMs
}

// unfinishedSeats returns the users who have neither solved nor forfeited.
func unfinishedSeats(match *models.Match, state *models.MatchState) []uint {
	var remaining []uint
	for _, id := range match.Seats() {
		if !state.Finished(id) {
			remaining = append(remaining, id)
		}
	}
	return remaining
}

// forfeitSeat removes a user from play and settles when the table is down to
// its last live seat. Returns whether the match ended.
func (s *MatchService) forfeitSeat(tx *gorm.DB, match *models.Match, state *models.MatchState, userID uint, reason string, nowMs int64) (bool, error) {
	state.Forfeits = append(state.Forfeits, userID)

	remaining := unfinishedSeats(match, state)
	if len(remaining) <= 1 {
		// The survivor finishes on top.
		state.Winners = append(state.Winners, remaining...)
		if match.SeatCount() == 2 {
			if len(remaining) == 1 {
				return true, s.settleWinner(tx, match, state, remaining[0], reason)
			}
			return true, s.settleRefund(tx, match, state, reason)
		}
		return true, s.settleRanked(tx, match, state, reason)
	}

	if match.TurnUserID == userID {
		s.advanceTurn(match, state, nowMs)
	}
	return false, nil
}

// markEnded applies the terminal write. The settlement gate: a match settles
// exactly once because the first writer under the lock sets EndedAt and every
// later path sees it.
func (s *MatchService) markEnded(match *models.Match, state *models.MatchState, winner *uint, reason string) error {
	if match.EndedAt != nil || match.WinnerUserID != nil {
		return errors.New(errors.ErrCodeInternalError, "match already settled")
	}
	now := time.Now()
	match.EndedAt = &now
	match.WinnerUserID = winner
	match.TurnUserID = 0
	match.LastActivityAt = now
	state.Phase = models.PhaseEnded
	state.EndedReason = reason
	return nil
}

// settleRefund ends the match returning every seat its fee. No statistics
// move: a refunded match never happened competitively.
func (s *MatchService) settleRefund(tx *gorm.DB, match *models.Match, state *models.MatchState, reason string) error {
	if err := s.markEnded(match, state, nil, reason); err != nil {
		return err
	}

	payout := game.RefundAll(match.Fee, match.Seats())
	for userID, amount := range payout {
		desc := fmt.Sprintf("Refund for match #%d (%s)", match.ID, reason)
		if _, err := s.walletRepo.CreditTx(tx, userID, amount, models.TxTypeMatchRefund, desc); err != nil {
			return err
		}
	}

	logger.Info("match refunded", "match_id", match.ID, "reason", reason)
	return nil
}

// settleWinner ends a two-player match paying the pot to one side.
func (s *MatchService) settleWinner(tx *gorm.DB, match *models.Match, state *models.MatchState, winner uint, reason string) error {
	if err := s.markEnded(match, state, &winner, reason); err != nil {
		return err
	}

	payout := game.WinnerPot(match.Fee, winner)
	desc := fmt.Sprintf("Winnings for match #%d", match.ID)
	if _, err := s.walletRepo.CreditTx(tx, winner, payout[winner], models.TxTypeMatchPayout, desc); err != nil {
		return err
	}

	for _, userID := range match.Seats() {
		if err := s.walletRepo.ApplyResultTx(tx, userID, match.ModeKey, userID == winner); err != nil {
			return err
		}
	}

	logger.Info("match settled", "match_id", match.ID, "winner", winner, "reason", reason)
	return nil
}

// settleRanked ends a four-player match by finish order. Only first place
// counts as a win for statistics.
func (s *MatchService) settleRanked(tx *gorm.DB, match *models.Match, state *models.MatchState, reason string) error {
	ranking := game.Ranking(match.Seats(), state.Winners, state.Forfeits)
	if len(ranking) == 0 {
		return errors.New(errors.ErrCodeInternalError, "empty ranking")
	}
	winner := ranking[0]

	if err := s.markEnded(match, state, &winner, reason); err != nil {
		return err
	}

	payout := game.RankedPayouts(match.Fee, ranking)
	for i, userID := range ranking {
		amount := payout[userID]
		if amount > 0 {
			desc := fmt.Sprintf("Rank %d payout for match #%d", i+1, match.ID)
			if _, err := s.walletRepo.CreditTx(tx, userID, amount, models.TxTypeMatchPayout, desc); err != nil {
				return err
			}
		}
		if err := s.walletRepo.ApplyResultTx(tx, userID, match.ModeKey, userID == winner); err != nil {
			return err
		}
	}

	logger.Info("match settled ranked", "match_id", match.ID, "winner", winner, "reason", reason)
	return nil
}
