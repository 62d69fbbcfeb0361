package services

import (
	"github.com/Mesh2A/digitduel/internal/game"
	"github.com/Mesh2A/digitduel/internal/models"
)

// SeatInfo is one seat as seen by a particular viewer.
type SeatInfo struct {
	Seat      models.Seat          `json:"seat"`
	UserID    uint                 `json:"user_id"`
	You       bool                 `json:"you"`
	Finished  bool                 `json:"finished"`
	Connected bool                 `json:"connected"`
	History   []models.GuessRecord `json:"history"`

	// Custom setup progress. Whether a secret exists is public; its digits
	// are not.
	Ready     bool `json:"ready,omitempty"`
	SecretSet bool `json:"secret_set,omitempty"`

	// Props bookkeeping. The picked card stays hidden until the reveal.
	Picked   bool   `json:"picked,omitempty"`
	Card     string `json:"card,omitempty"`
	CardUsed bool   `json:"card_used,omitempty"`
}

// MatchView is the per-viewer projection of a match: everything hidden from
// the viewer is stripped before it leaves the service.
type MatchView struct {
	MatchID uint         `json:"match_id"`
	ModeKey string       `json:"mode_key"`
	Fee     int64        `json:"fee"`
	CodeLen int          `json:"code_len"`
	Kind    models.Kind  `json:"kind"`
	Phase   models.Phase `json:"phase"`
	Round   int          `json:"round"`

	Seats []SeatInfo `json:"seats"`

	TurnUserID      uint  `json:"turn_user_id,omitempty"`
	TurnRemainingMs int64 `json:"turn_remaining_ms,omitempty"`

	Deck        []string `json:"deck,omitempty"`
	YourEffect  string   `json:"your_effect,omitempty"`
	YourSecret  string   `json:"your_secret,omitempty"`
	DoubleArmed bool     `json:"double_armed,omitempty"`

	Winners      []uint `json:"winners,omitempty"`
	Forfeits     []uint `json:"forfeits,omitempty"`
	WinnerUserID *uint  `json:"winner_user_id,omitempty"`
	EndedReason  string `json:"ended_reason,omitempty"`

	// Revealed only after the match ends.
	Answer  string                 `json:"answer,omitempty"`
	Secrets map[models.Seat]string `json:"secrets,omitempty"`
}

// buildView renders the viewer's redacted projection.
func (s *MatchService) buildView(match *models.Match, state *models.MatchState, viewerID uint, nowMs int64) *MatchView {
	ended := match.Ended()
	revealed := ended || state.Phase == models.PhasePlay

	view := &MatchView{
		MatchID:      match.ID,
		ModeKey:      match.ModeKey,
		Fee:          match.Fee,
		CodeLen:      match.CodeLen,
		Kind:         state.Kind,
		Phase:        state.Phase,
		Round:        state.Round,
		TurnUserID:   match.TurnUserID,
		Winners:      state.Winners,
		Forfeits:     state.Forfeits,
		WinnerUserID: match.WinnerUserID,
		EndedReason:  state.EndedReason,
	}

	if !ended && state.Phase == models.PhasePlay && match.TurnUserID != 0 {
		remaining := s.cfg.TurnTimeoutMs - (nowMs - match.TurnStartedAt)
		if remaining < 0 {
			remaining = 0
		}
		view.TurnRemainingMs = remaining
	}

	for _, seat := range match.SeatLetters() {
		userID := match.UserAt(seat)
		info := SeatInfo{
			Seat:      seat,
			UserID:    userID,
			You:       userID == viewerID,
			Finished:  state.Finished(userID),
			Connected: s.seatConnected(state, seat, nowMs),
			History:   redactHistory(state.History[seat], ended),
		}

		if state.Custom != nil {
			info.Ready = state.Custom.Ready[seat]
			info.SecretSet = state.Custom.Secrets[seat] != ""
		}
		if state.Props != nil {
			pick, picked := state.Props.Pick[seat]
			info.Picked = picked
			info.CardUsed = state.Props.Used[seat]
			if picked && (revealed || userID == viewerID) {
				info.Card = state.Props.Deck[pick]
			}
		}

		view.Seats = append(view.Seats, info)
	}

	viewerSeat, seated := match.SeatOf(viewerID)
	if state.Props != nil {
		view.Deck = state.Props.Deck
		if seated {
			view.YourEffect = state.Props.Effects[viewerSeat]
			view.DoubleArmed = state.Props.DoubleArmed[viewerSeat]
		}
	}
	if state.Custom != nil && seated {
		view.YourSecret = state.Custom.Secrets[viewerSeat]
	}

	if ended {
		view.Answer = match.Answer
		if state.Custom != nil {
			view.Secrets = state.Custom.Secrets
		}
	}

	return view
}

// seatConnected reports presence the way the maintenance pass judges it.
func (s *MatchService) seatConnected(state *models.MatchState, seat models.Seat, nowMs int64) bool {
	presence := state.Presence[seat]
	if presence == nil || presence.LastSeenAt == 0 {
		return false
	}
	if presence.DisconnectedAt != 0 {
		return false
	}
	return nowMs-presence.LastSeenAt < s.cfg.DisconnectMarkMs
}

// redactHistory hides the marks of masked guesses until the match is over.
func redactHistory(history []models.GuessRecord, ended bool) []models.GuessRecord {
	if ended {
		return history
	}
	redacted := make([]models.GuessRecord, len(history))
	for i, record := range history {
		if record.Masked {
			record.Marks = game.MaskMarks(record.Marks)
		}
		redacted[i] = record
	}
	return redacted
}
