package models

import (
	"testing"
)

func duoSeats() []Seat {
	return []Seat{SeatA, SeatB}
}

func TestNewMatchStateInitialPhase(t *testing.T) {
	tests := []struct {
		name      string
		mode      Mode
		seats     []Seat
		wantKind  Kind
		wantPhase Phase
	}{
		{
			name:      "normal duo waits for both players",
			mode:      Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 2},
			seats:     duoSeats(),
			wantKind:  KindNormal,
			wantPhase: PhaseWaiting,
		},
		{
			name:      "custom starts in setup",
			mode:      Mode{Difficulty: DifficultyEasy, Variant: VariantCustom, GroupSize: 2},
			seats:     duoSeats(),
			wantKind:  KindCustom,
			wantPhase: PhaseSetup,
		},
		{
			name:      "props starts with the card pick",
			mode:      Mode{Difficulty: DifficultyEasy, Variant: VariantProps, GroupSize: 2},
			seats:     duoSeats(),
			wantKind:  KindProps,
			wantPhase: PhaseCards,
		},
		{
			name:      "group normal plays immediately",
			mode:      Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 4},
			seats:     SeatOrder,
			wantKind:  KindGroup4,
			wantPhase: PhasePlay,
		},
		{
			name:      "group props picks cards first",
			mode:      Mode{Difficulty: DifficultyEasy, Variant: VariantProps, GroupSize: 4},
			seats:     SeatOrder,
			wantKind:  KindGroup4,
			wantPhase: PhaseCards,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewMatchState(tt.mode, tt.seats, 1000)
			if state.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", state.Kind, tt.wantKind)
			}
			if state.Phase != tt.wantPhase {
				t.Errorf("Phase = %s, want %s", state.Phase, tt.wantPhase)
			}
			if state.Round != 1 {
				t.Errorf("Round = %d, want 1", state.Round)
			}
			for _, seat := range tt.seats {
				if state.Presence[seat] == nil {
					t.Errorf("seat %s has no presence slot", seat)
				}
				if state.History[seat] == nil {
					t.Errorf("seat %s has no history slot", seat)
				}
			}
		})
	}
}

func TestStateEncodeDecodeRoundTrip(t *testing.T) {
	mode := Mode{Difficulty: DifficultyMedium, Variant: VariantProps, GroupSize: 2}
	state := NewMatchState(mode, duoSeats(), 5000)
	state.Props.Deck = []string{"skip_turn", "hide_colors", "reverse_digits", "skip_turn", "double_or_nothing"}
	state.Props.Pick[SeatA] = 2
	state.AppendGuess(SeatA, GuessRecord{Guess: "1234", Marks: []string{"ok", "bad", "warn", "bad"}, At: 6000})

	doc, err := state.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	decoded, err := DecodeState(doc)
	if err != nil {
		t.Fatalf("DecodeState failed: %v", err)
	}
	if decoded.Kind != KindProps || decoded.Phase != PhaseCards {
		t.Errorf("decoded kind/phase = %s/%s", decoded.Kind, decoded.Phase)
	}
	if decoded.Props == nil || decoded.Props.Pick[SeatA] != 2 {
		t.Errorf("props payload not preserved: %+v", decoded.Props)
	}
	if len(decoded.History[SeatA]) != 1 || decoded.History[SeatA][0].Guess != "1234" {
		t.Errorf("history not preserved: %+v", decoded.History[SeatA])
	}
}

func TestDecodeStateRejectsCorruptDocs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "{{"},
		{"unknown kind", `{"kind":"mystery","phase":"play","round":1}`},
		{"phase invalid for kind", `{"kind":"normal","phase":"cards","round":1}`},
		{"custom without payload", `{"kind":"custom","phase":"setup","round":1}`},
		{"props without payload", `{"kind":"props","phase":"cards","round":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeState(tt.doc); err == nil {
				t.Errorf("DecodeState accepted %q", tt.doc)
			}
		})
	}
}

func TestAppendGuessCapsHistory(t *testing.T) {
	mode := Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 2}
	state := NewMatchState(mode, duoSeats(), 0)

	for i := 0; i < GuessHistoryCap+10; i++ {
		state.AppendGuess(SeatA, GuessRecord{Guess: "123", At: int64(i)})
	}

	history := state.History[SeatA]
	if len(history) != GuessHistoryCap {
		t.Fatalf("history length = %d, want %d", len(history), GuessHistoryCap)
	}
	// The oldest entries are the ones dropped.
	if history[0].At != 10 {
		t.Errorf("oldest kept entry At = %d, want 10", history[0].At)
	}
	if history[len(history)-1].At != int64(GuessHistoryCap+9) {
		t.Errorf("newest entry At = %d, want %d", history[len(history)-1].At, GuessHistoryCap+9)
	}
}

func TestTouchThrottlesWrites(t *testing.T) {
	mode := Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 2}
	state := NewMatchState(mode, duoSeats(), 0)

	if !state.Touch(SeatA, 10000, 2500) {
		t.Fatal("first touch should write")
	}
	if state.Touch(SeatA, 11000, 2500) {
		t.Error("touch within the throttle window should not write")
	}
	if !state.Touch(SeatA, 12500, 2500) {
		t.Error("touch past the throttle window should write")
	}
	if state.Presence[SeatA].LastSeenAt != 12500 {
		t.Errorf("LastSeenAt = %d, want 12500", state.Presence[SeatA].LastSeenAt)
	}
}

func TestTouchClearsDisconnect(t *testing.T) {
	mode := Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 2}
	state := NewMatchState(mode, duoSeats(), 0)

	state.Presence[SeatA].LastSeenAt = 1000
	state.Presence[SeatA].DisconnectedAt = 14000

	if !state.Touch(SeatA, 20000, 2500) {
		t.Fatal("touch should write")
	}
	if state.Presence[SeatA].DisconnectedAt != 0 {
		t.Error("touch should clear the disconnect mark")
	}
}

func TestFinished(t *testing.T) {
	mode := Mode{Difficulty: DifficultyEasy, Variant: VariantNormal, GroupSize: 2}
	state := NewMatchState(mode, duoSeats(), 0)
	state.Winners = []uint{7}
	state.Forfeits = []uint{9}

	tests := []struct {
		userID uint
		want   bool
	}{
		{7, true},
		{9, true},
		{8, false},
	}
	for _, tt := range tests {
		if got := state.Finished(tt.userID); got != tt.want {
			t.Errorf("Finished(%d) = %v, want %v", tt.userID, got, tt.want)
		}
	}
}
