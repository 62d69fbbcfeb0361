package services

import (
	"github.com/Mesh2A/digitduel/internal/game"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
	"gorm.io/gorm"
)

// Guess submits a digit code on the caller's turn.
func (s *MatchService) Guess(userID uint, connectionID string, matchID uint, guess string) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Phase != models.PhasePlay {
			return errors.New(errors.ErrCodeWrongPhase, "match is not in play")
		}
		if state.Finished(userID) {
			return errors.New(errors.ErrCodeWrongPhase, "you have already finished")
		}
		if match.TurnUserID != userID {
			return errors.New(errors.ErrCodeNotYourTurn, "not your turn")
		}
		if !game.ValidGuess(guess, match.CodeLen) {
			return errors.New(errors.ErrCodeValidation, "guess must be exactly the code length, digits only")
		}

		target, err := s.guessTarget(match, state, seat)
		if err != nil {
			return err
		}

		// Pending card effects fire on the victim's next guess.
		masked := false
		if state.Props != nil {
			switch state.Props.Effects[seat] {
			case game.CardReverseDigits:
				guess = game.ReverseDigits(guess)
				delete(state.Props.Effects, seat)
			case game.CardHideColors:
				masked = true
				delete(state.Props.Effects, seat)
			}
		}

		marks, solved := game.Evaluate(guess, target)
		state.AppendGuess(seat, models.GuessRecord{
			Guess:  guess,
			Marks:  marks,
			Solved: solved,
			Masked: masked,
			At:     nowMs,
		})
		touchDirect(state, seat, nowMs)

		if !solved {
			s.advanceTurn(match, state, nowMs)
			return nil
		}
		return s.resolveSolve(tx, match, state, seat, userID, nowMs)
	})
}

// guessTarget returns the code the seat is guessing against: the shared
// answer, or the opponent's secret for the custom variant.
func (s *MatchService) guessTarget(match *models.Match, state *models.MatchState, seat models.Seat) (string, error) {
	if state.Kind != models.KindCustom {
		return match.Answer, nil
	}
	opponent := models.SeatA
	if seat == models.SeatA {
		opponent = models.SeatB
	}
	secret := state.Custom.Secrets[opponent]
	if secret == "" {
		return "", errors.New(errors.ErrCodeInternalError, "opponent secret missing")
	}
	return secret, nil
}

// resolveSolve handles a correct guess. A solver with double-or-nothing
// armed replays the round instead of finishing: fresh answer, cleared
// histories, incremented round counter, effect consumed. Otherwise
// two-player tables settle and four-player tables keep going until one live
// seat remains.
func (s *MatchService) resolveSolve(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, userID uint, nowMs int64) error {
	if state.Props != nil && state.Props.DoubleArmed[seat] {
		state.Props.DoubleArmed[seat] = false
		state.Round++
		match.Answer = game.GenerateAnswer(match.CodeLen)
		if match.Answer == "" {
			return errors.New(errors.ErrCodeInternalError, "failed to generate answer")
		}
		for historySeat := range state.History {
			state.History[historySeat] = []models.GuessRecord{}
		}
		s.advanceTurn(match, state, nowMs)
		return nil
	}

	state.Winners = append(state.Winners, userID)

	if match.SeatCount() == 2 {
		return s.settleWinner(tx, match, state, userID, models.EndedReasonSolve)
	}

	remaining := unfinishedSeats(match, state)
	if len(remaining) <= 1 {
		state.Winners = append(state.Winners, remaining...)
		return s.settleRanked(tx, match, state, models.EndedReasonSolve)
	}
	s.advanceTurn(match, state, nowMs)
	return nil
}

// Forfeit withdraws the caller. Before play begins it voids the pairing and
// refunds everyone; during play it concedes.
func (s *MatchService) Forfeit(userID uint, connectionID string, matchID uint) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Finished(userID) {
			return errors.New(errors.ErrCodeWrongPhase, "you have already finished")
		}

		state.ForfeitedBy = userID
		if state.Phase != models.PhasePlay {
			return s.settleRefund(tx, match, state, models.EndedReasonForfeit)
		}

		_, err := s.forfeitSeat(tx, match, state, userID, models.EndedReasonForfeit, nowMs)
		return err
	})
}

// SetSecret stores the caller's hidden code during custom setup. It may be
// replaced freely until the caller declares ready.
func (s *MatchService) SetSecret(userID uint, connectionID string, matchID uint, secret string) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Kind != models.KindCustom || state.Phase != models.PhaseSetup {
			return errors.New(errors.ErrCodeWrongPhase, "no secret to set in this phase")
		}
		if state.Custom.Ready[seat] {
			return errors.New(errors.ErrCodeValidation, "secret is locked once ready")
		}
		if !game.ValidSecret(secret, match.CodeLen) {
			return errors.New(errors.ErrCodeValidation, "secret must be the code length with no repeated digits")
		}

		state.Custom.Secrets[seat] = secret
		touchDirect(state, seat, nowMs)
		return nil
	})
}

// SetReady locks or unlocks the caller's secret. Unreadying reopens the
// secret for replacement. When the last player readies up the duel begins.
func (s *MatchService) SetReady(userID uint, connectionID string, matchID uint, ready bool) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Kind != models.KindCustom || state.Phase != models.PhaseSetup {
			return errors.New(errors.ErrCodeWrongPhase, "nothing to ready in this phase")
		}
		if ready && state.Custom.Secrets[seat] == "" {
			return errors.New(errors.ErrCodeValidation, "set a secret before readying")
		}

		state.Custom.Ready[seat] = ready
		touchDirect(state, seat, nowMs)

		if !ready {
			return nil
		}
		for _, other := range match.SeatLetters() {
			if !state.Custom.Ready[other] {
				return nil
			}
		}
		s.enterPlay(match, state, nowMs)
		return nil
	})
}

// PickCard privately selects one card from the dealt deck. The reveal fires
// a moment after the last pick lands.
func (s *MatchService) PickCard(userID uint, connectionID string, matchID uint, index int) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Props == nil || state.Phase != models.PhaseCards {
			return errors.New(errors.ErrCodeWrongPhase, "no card pick in this phase")
		}
		if _, picked := state.Props.Pick[seat]; picked {
			return errors.New(errors.ErrCodeAlreadyExists, "card already picked")
		}
		if index < 0 || index >= len(state.Props.Deck) {
			return errors.New(errors.ErrCodeValidation, "card index out of range")
		}

		state.Props.Pick[seat] = index
		touchDirect(state, seat, nowMs)

		if len(state.Props.Pick) == match.SeatCount() {
			state.Props.PickedAt = nowMs
		}
		return nil
	})
}

// UseCard plays the caller's picked card, once per match, on the caller's
// own turn. Offensive cards land on an opponent as a pending effect; a
// later cast replaces an earlier one on the same target.
func (s *MatchService) UseCard(userID uint, connectionID string, matchID uint, targetUserID uint) (*MatchView, error) {
	return s.run(userID, connectionID, matchID, func(tx *gorm.DB, match *models.Match, state *models.MatchState, seat models.Seat, nowMs int64) error {
		if state.Props == nil || state.Phase != models.PhasePlay {
			return errors.New(errors.ErrCodeWrongPhase, "no card to use in this phase")
		}
		if state.Finished(userID) {
			return errors.New(errors.ErrCodeWrongPhase, "you have already finished")
		}
		if match.TurnUserID != userID {
			return errors.New(errors.ErrCodeNotYourTurn, "not your turn")
		}
		pick, picked := state.Props.Pick[seat]
		if !picked {
			return errors.New(errors.ErrCodeValidation, "no card was picked")
		}
		if state.Props.Used[seat] {
			return errors.New(errors.ErrCodeCardAlreadyUsed, "card already used")
		}

		card := state.Props.Deck[pick]
		touchDirect(state, seat, nowMs)

		if game.TargetsSelf(card) {
			state.Props.DoubleArmed[seat] = true
			state.Props.Used[seat] = true
			return nil
		}

		targetSeat, err := resolveTarget(match, state, userID, targetUserID)
		if err != nil {
			return err
		}
		state.Props.Effects[targetSeat] = card
		state.Props.Used[seat] = true
		return nil
	})
}

// resolveTarget picks the victim seat for an offensive card. Two-player
// tables always target the opponent; four-player tables name one explicitly.
func resolveTarget(match *models.Match, state *models.MatchState, userID, targetUserID uint) (models.Seat, error) {
	if match.SeatCount() == 2 {
		for _, id := range match.Seats() {
			if id != userID {
				seat, _ := match.SeatOf(id)
				return seat, nil
			}
		}
		return "", errors.New(errors.ErrCodeInternalError, "opponent not found")
	}

	if targetUserID == 0 || targetUserID == userID {
		return "", errors.New(errors.ErrCodeValidation, "pick an opponent to target")
	}
	seat, ok := match.SeatOf(targetUserID)
	if !ok {
		return "", errors.New(errors.ErrCodeValidation, "target is not in this match")
	}
	if state.Finished(targetUserID) {
		return "", errors.New(errors.ErrCodeValidation, "target has already finished")
	}
	return seat, nil
}

// touchDirect refreshes a seat's presence from an explicit action,
// bypassing the poll throttle.
func touchDirect(state *models.MatchState, seat models.Seat, nowMs int64) {
	presence := state.Presence[seat]
	if presence == nil {
		presence = &models.SeatPresence{}
		state.Presence[seat] = presence
	}
	presence.LastSeenAt = nowMs
	presence.DisconnectedAt = 0
}
