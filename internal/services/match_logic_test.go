package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Mesh2A/digitduel/internal/game"
	"github.com/Mesh2A/digitduel/internal/models"
	"github.com/Mesh2A/digitduel/pkg/errors"
)

func groupMatch() (*models.Match, *models.MatchState) {
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 4}
	state := models.NewMatchState(mode, models.SeatOrder, 0)
	match := &models.Match{
		ID: 3, ModeKey: mode.Key(), CodeLen: 3,
		SeatA: 10, SeatB: 20, SeatC: 30, SeatD: 40,
	}
	return match, state
}

func TestAdvanceTurnRotation(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	match, state := groupMatch()
	match.TurnUserID = 10

	svc.advanceTurn(match, state, 5000)
	if match.TurnUserID != 20 {
		t.Fatalf("turn = %d, want 20", match.TurnUserID)
	}
	if match.TurnStartedAt != 5000 {
		t.Errorf("TurnStartedAt = %d, want 5000", match.TurnStartedAt)
	}
}

func TestAdvanceTurnSkipsFinishedSeats(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	match, state := groupMatch()
	match.TurnUserID = 10
	state.Winners = []uint{20}
	state.Forfeits = []uint{30}

	svc.advanceTurn(match, state, 5000)
	if match.TurnUserID != 40 {
		t.Errorf("turn = %d, want 40", match.TurnUserID)
	}
}

func TestAdvanceTurnConsumesSkipEffect(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantProps, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 4, SeatA: 10, SeatB: 20}
	match.TurnUserID = 10
	state.Props.Effects[models.SeatB] = game.CardSkipTurn

	svc.advanceTurn(match, state, 5000)
	// The skip burns B's turn and hands it straight back.
	if match.TurnUserID != 10 {
		t.Errorf("turn = %d, want 10", match.TurnUserID)
	}
	if _, pending := state.Props.Effects[models.SeatB]; pending {
		t.Error("skip effect should be consumed")
	}
}

func TestResolveSolveDoubleOrNothingReplays(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantProps, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 6, CodeLen: 3, SeatA: 10, SeatB: 20, Answer: "123"}
	match.TurnUserID = 10
	state.Phase = models.PhasePlay
	state.Props.DoubleArmed[models.SeatA] = true
	state.AppendGuess(models.SeatA, models.GuessRecord{Guess: "123", Solved: true})

	if err := svc.resolveSolve(nil, match, state, models.SeatA, 10, 5000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.Ended() {
		t.Fatal("armed solve must replay, not settle")
	}
	if state.Round != 2 {
		t.Errorf("round = %d, want 2", state.Round)
	}
	if state.Props.DoubleArmed[models.SeatA] {
		t.Error("double-or-nothing should be consumed")
	}
	if len(match.Answer) != 3 {
		t.Errorf("replay answer = %q, want 3 digits", match.Answer)
	}
	if len(state.History[models.SeatA]) != 0 || len(state.History[models.SeatB]) != 0 {
		t.Error("replay should clear both histories")
	}
	if match.TurnUserID != 20 {
		t.Errorf("turn = %d, want 20", match.TurnUserID)
	}
}

func TestMaintainPlayAdvancesExpiredTurns(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 7, SeatA: 10, SeatB: 20, LastActivityAt: time.Now()}
	state.Phase = models.PhasePlay
	match.TurnUserID = 10
	match.TurnStartedAt = 0
	state.Presence[models.SeatA].LastSeenAt = 65000
	state.Presence[models.SeatB].LastSeenAt = 65000

	// Two full windows elapsed: A timed out, then B, back to A.
	dirty, err := svc.maintainPlay(nil, match, state, 65000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dirty {
		t.Error("expired turns should dirty the state")
	}
	if match.TurnUserID != 10 {
		t.Errorf("turn = %d, want 10", match.TurnUserID)
	}
	if match.TurnStartedAt != 60000 {
		t.Errorf("TurnStartedAt = %d, want 60000", match.TurnStartedAt)
	}
}

func TestUnfinishedSeats(t *testing.T) {
	match, state := groupMatch()
	state.Winners = []uint{20}
	state.Forfeits = []uint{40}

	remaining := unfinishedSeats(match, state)
	if len(remaining) != 2 || remaining[0] != 10 || remaining[1] != 30 {
		t.Errorf("unfinished = %v, want [10 30]", remaining)
	}
}

func TestResolveTarget(t *testing.T) {
	duoMatch := &models.Match{ID: 5, SeatA: 10, SeatB: 20}
	duoMode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantProps, GroupSize: 2}
	duoState := models.NewMatchState(duoMode, []models.Seat{models.SeatA, models.SeatB}, 0)

	grpMatch, grpState := groupMatch()
	grpState.Winners = []uint{30}

	tests := []struct {
		name     string
		match    *models.Match
		state    *models.MatchState
		userID   uint
		targetID uint
		wantSeat models.Seat
		wantCode string
	}{
		{"duo auto-targets opponent", duoMatch, duoState, 10, 0, models.SeatB, ""},
		{"duo ignores explicit target", duoMatch, duoState, 20, 20, models.SeatA, ""},
		{"group requires a target", grpMatch, grpState, 10, 0, "", errors.ErrCodeValidation},
		{"group rejects self", grpMatch, grpState, 10, 10, "", errors.ErrCodeValidation},
		{"group rejects outsider", grpMatch, grpState, 10, 99, "", errors.ErrCodeValidation},
		{"group rejects finished seat", grpMatch, grpState, 10, 30, "", errors.ErrCodeValidation},
		{"group valid target", grpMatch, grpState, 10, 40, models.SeatD, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seat, err := resolveTarget(tt.match, tt.state, tt.userID, tt.targetID)
			if tt.wantCode != "" {
				if err == nil || errors.Code(err) != tt.wantCode {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seat != tt.wantSeat {
				t.Errorf("seat = %s, want %s", seat, tt.wantSeat)
			}
		})
	}
}

func waitingDuo() (*models.Match, *models.MatchState) {
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 8, CodeLen: 3, SeatA: 10, SeatB: 20, Answer: "123",
		CreatedAt: time.Now(), LastActivityAt: time.Now()}
	return match, state
}

func TestMaintainPrePlayMarksSilentSeat(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	match, state := waitingDuo()
	base := match.CreatedAt.UnixMilli()
	state.Presence[models.SeatA].LastSeenAt = base

	// A showed up and went silent for 13s; B never arrived at all.
	dirty, err := svc.maintainPrePlay(nil, match, state, base+13000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dirty {
		t.Error("a fresh disconnect mark must be persisted")
	}
	if got := state.Presence[models.SeatA].DisconnectedAt; got != base+13000 {
		t.Errorf("DisconnectedAt = %d, want %d", got, base+13000)
	}
	if state.Presence[models.SeatB].DisconnectedAt != 0 {
		t.Error("a seat that never arrived must not be marked")
	}
	if match.Ended() || state.Phase != models.PhaseWaiting {
		t.Error("the grace window has not run out yet")
	}
}

func TestMaintainPrePlayReconnectClearsMark(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	match, state := waitingDuo()
	base := match.CreatedAt.UnixMilli()
	state.Presence[models.SeatA].LastSeenAt = base

	if dirty, err := svc.maintainPrePlay(nil, match, state, base+13000); err != nil || !dirty {
		t.Fatalf("mark pass: dirty=%v err=%v", dirty, err)
	}
	touchDirect(state, models.SeatA, base+14000)

	dirty, err := svc.maintainPrePlay(nil, match, state, base+15000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dirty {
		t.Error("nothing left to persist after the reconnect")
	}
	if state.Presence[models.SeatA].DisconnectedAt != 0 {
		t.Error("reconnecting inside the grace window must clear the mark")
	}
	if match.Ended() {
		t.Error("match should still be live")
	}
}

func TestMaintainPrePlayStartsWhenAllFresh(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	match, state := waitingDuo()
	base := match.CreatedAt.UnixMilli()
	state.Presence[models.SeatA].LastSeenAt = base + 1000

	// Only A has shown up, so the duel keeps waiting.
	dirty, err := svc.maintainPrePlay(nil, match, state, base+2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dirty || state.Phase != models.PhaseWaiting {
		t.Fatalf("phase = %s (dirty=%v), want waiting", state.Phase, dirty)
	}

	touchDirect(state, models.SeatB, base+3000)
	dirty, err = svc.maintainPrePlay(nil, match, state, base+4000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dirty {
		t.Error("entering play should dirty the state")
	}
	if state.Phase != models.PhasePlay {
		t.Errorf("phase = %s, want play", state.Phase)
	}
	if match.TurnUserID != 10 {
		t.Errorf("first turn = %d, want 10", match.TurnUserID)
	}
	if match.TurnStartedAt != base+4000 {
		t.Errorf("TurnStartedAt = %d, want %d", match.TurnStartedAt, base+4000)
	}
}

func TestApplyLockedKeepsMaintenanceOnRejectedOp(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 9, SeatA: 10, SeatB: 20, LastActivityAt: time.Now()}
	state.Phase = models.PhasePlay
	match.TurnUserID = 10
	match.TurnStartedAt = 0
	state.Presence[models.SeatA].LastSeenAt = 35000
	state.Presence[models.SeatB].LastSeenAt = 35000

	op := func(tx *gorm.DB, m *models.Match, st *models.MatchState, seat models.Seat, nowMs int64) error {
		m.TurnUserID = 999
		st.Round = 99
		return errors.New(errors.ErrCodeNotYourTurn, "not your turn")
	}

	// A's turn expired before the request, so maintenance hands the turn to B
	// and the caller is told no. The expired-turn work must survive.
	dirty, opErr, err := svc.applyLocked(nil, match, state, models.SeatA, 35000, op)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opErr == nil || errors.Code(opErr) != errors.ErrCodeNotYourTurn {
		t.Fatalf("op error = %v, want NOT_YOUR_TURN", opErr)
	}
	if !dirty {
		t.Error("maintenance work should still be saved")
	}
	if match.TurnUserID != 20 {
		t.Errorf("turn = %d, want 20 after the snapshot restore", match.TurnUserID)
	}
	decoded, err := models.DecodeState(match.StateDoc)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Round != 1 {
		t.Errorf("round = %d, want 1 after the snapshot restore", decoded.Round)
	}
}

func TestApplyLockedRollsBackOnInternalError(t *testing.T) {
	svc := &MatchService{cfg: testConfig()}
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	match := &models.Match{ID: 9, SeatA: 10, SeatB: 20, LastActivityAt: time.Now()}
	state.Phase = models.PhasePlay
	match.TurnUserID = 10
	match.TurnStartedAt = 0
	state.Presence[models.SeatA].LastSeenAt = 35000
	state.Presence[models.SeatB].LastSeenAt = 35000

	op := func(tx *gorm.DB, m *models.Match, st *models.MatchState, seat models.Seat, nowMs int64) error {
		return errors.New(errors.ErrCodeInternalError, "credit failed")
	}

	dirty, opErr, err := svc.applyLocked(nil, match, state, models.SeatA, 35000, op)
	if err == nil || errors.Code(err) != errors.ErrCodeInternalError {
		t.Fatalf("error = %v, want INTERNAL_ERROR", err)
	}
	if dirty || opErr != nil {
		t.Errorf("dirty=%v opErr=%v, want a full rollback", dirty, opErr)
	}
}

func TestTouchDirectBypassesThrottle(t *testing.T) {
	mode := models.Mode{Difficulty: models.DifficultyEasy, Variant: models.VariantNormal, GroupSize: 2}
	state := models.NewMatchState(mode, []models.Seat{models.SeatA, models.SeatB}, 0)
	state.Presence[models.SeatA].LastSeenAt = 1000
	state.Presence[models.SeatA].DisconnectedAt = 900

	touchDirect(state, models.SeatA, 1500)
	if state.Presence[models.SeatA].LastSeenAt != 1500 {
		t.Errorf("LastSeenAt = %d, want 1500", state.Presence[models.SeatA].LastSeenAt)
	}
	if state.Presence[models.SeatA].DisconnectedAt != 0 {
		t.Error("disconnect mark should be cleared")
	}
}
