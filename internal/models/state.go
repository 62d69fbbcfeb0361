package models

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the match state document.
type Kind string

const (
	KindNormal Kind = "normal"
	KindCustom Kind = "custom"
	KindProps  Kind = "props"
	KindGroup4 Kind = "group4"
)

// Phase is the kind-dependent lifecycle stage of a match.
type Phase string

const (
	PhaseWaiting Phase = "waiting" // normal 2p: both sides must show presence
	PhaseSetup   Phase = "setup"   // custom: secrets and ready flags
	PhaseCards   Phase = "cards"   // props: private card picks
	PhasePlay    Phase = "play"
	PhaseEnded   Phase = "ended"
)

// Seat identifies one of the fixed positions in a match.
type Seat string

const (
	SeatA Seat = "a"
	SeatB Seat = "b"
	SeatC Seat = "c"
	SeatD Seat = "d"
)

// SeatOrder is the fixed rotation order.
var SeatOrder = []Seat{SeatA, SeatB, SeatC, SeatD}

// GuessHistoryCap bounds each seat's guess ring buffer.
const GuessHistoryCap = 128

// Ended-reason constants
const (
	EndedReasonSolve             = "solve"
	EndedReasonForfeit           = "forfeit"
	EndedReasonDisconnectTimeout = "disconnect_timeout"
	EndedReasonPrePlayDisconnect = "pre_play_disconnect"
	EndedReasonStale             = "stale"
	EndedReasonDisabled          = "disabled"
)

// GuessRecord is one evaluated guess in a seat's history.
type GuessRecord struct {
	Guess  string   `json:"guess"`
	Marks  []string `json:"marks"` // ok | warn | bad, one per position
	Solved bool     `json:"solved"`
	Masked bool     `json:"masked"` // hide_colors was active; marks are neutral
	At     int64    `json:"at"`     // epoch ms
}

// SeatPresence tracks liveness of one seat. Epoch ms; zero means never.
type SeatPresence struct {
	LastSeenAt     int64 `json:"last_seen_at"`
	DisconnectedAt int64 `json:"disconnected_at,omitempty"`
}

// CustomData holds the setup-phase secrets for the custom variant.
type CustomData struct {
	Secrets map[Seat]string `json:"secrets"`
	Ready   map[Seat]bool   `json:"ready"`
}

// PropsData holds the card variant's deck and effect bookkeeping.
type PropsData struct {
	Deck        []string        `json:"deck"`                // 5 dealt cards
	Pick        map[Seat]int    `json:"pick"`                // chosen deck index per seat
	Used        map[Seat]bool   `json:"used"`                // card consumed
	Effects     map[Seat]string `json:"effects"`             // pending effect on that seat's next action
	DoubleArmed map[Seat]bool   `json:"double_armed"`        // caster's double-or-nothing live
	PickedAt    int64           `json:"picked_at,omitempty"` // epoch ms when the last pick landed
}

// MatchState is the structured document stored per match: a tagged union
// discriminated by Kind, with a shared spine (phase, history, presence,
// finish order) and per-variant payloads.
type MatchState struct {
	Kind  Kind  `json:"kind"`
	Phase Phase `json:"phase"`
	Round int   `json:"round"`

	History map[Seat][]GuessRecord `json:"history"`

	// Finish order. winners ranked by solve order; forfeits in the order
	// they dropped. len(winners)+len(forfeits) never exceeds the seat count.
	Winners  []uint `json:"winners"`
	Forfeits []uint `json:"forfeits"`

	Presence map[Seat]*SeatPresence `json:"presence"`

	Custom *CustomData `json:"custom,omitempty"`
	Props  *PropsData  `json:"props,omitempty"`

	EndedReason string `json:"ended_reason,omitempty"`
	ForfeitedBy uint   `json:"forfeited_by,omitempty"`
}

var phasesByKind = map[Kind]map[Phase]bool{
	KindNormal: {PhaseWaiting: true, PhasePlay: true, PhaseEnded: true},
	KindCustom: {PhaseSetup: true, PhasePlay: true, PhaseEnded: true},
	KindProps:  {PhaseCards: true, PhasePlay: true, PhaseEnded: true},
	KindGroup4: {PhaseCards: true, PhasePlay: true, PhaseEnded: true},
}

// NewMatchState builds the initial state document for a mode.
func NewMatchState(mode Mode, seats []Seat, nowMs int64) *MatchState {
	state := &MatchState{
		Kind:     mode.Kind(),
		Round:    1,
		History:  make(map[Seat][]GuessRecord),
		Presence: make(map[Seat]*SeatPresence),
	}

	for _, seat := range seats {
		state.History[seat] = []GuessRecord{}
		state.Presence[seat] = &SeatPresence{}
	}

	switch state.Kind {
	case KindCustom:
		state.Phase = PhaseSetup
		state.Custom = &CustomData{
			Secrets: make(map[Seat]string),
			Ready:   make(map[Seat]bool),
		}
	case KindProps:
		state.Phase = PhaseCards
		state.Props = newPropsData()
	case KindGroup4:
		if mode.Variant == VariantProps {
			state.Phase = PhaseCards
			state.Props = newPropsData()
		} else {
			// Non-2-player pairings start playing immediately.
			state.Phase = PhasePlay
		}
	default:
		state.Phase = PhaseWaiting
	}

	return state
}

func newPropsData() *PropsData {
	return &PropsData{
		Pick:        make(map[Seat]int),
		Used:        make(map[Seat]bool),
		Effects:     make(map[Seat]string),
		DoubleArmed: make(map[Seat]bool),
	}
}

// DecodeState decodes and validates a state document. Decoding happens once
// per load; mutations work on the typed struct and re-encode on save.
func DecodeState(doc string) (*MatchState, error) {
	var state MatchState
	if err := json.Unmarshal([]byte(doc), &state); err != nil {
		return nil, fmt.Errorf("corrupt match state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.History == nil {
		state.History = make(map[Seat][]GuessRecord)
	}
	if state.Presence == nil {
		state.Presence = make(map[Seat]*SeatPresence)
	}
	return &state, nil
}

// Encode serializes the state document.
func (s *MatchState) Encode() (string, error) {
	encoded, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode match state: %w", err)
	}
	return string(encoded), nil
}

// Validate checks the kind/phase combination and variant payload presence.
func (s *MatchState) Validate() error {
	allowed, ok := phasesByKind[s.Kind]
	if !ok {
		return fmt.Errorf("unknown state kind %q", s.Kind)
	}
	if !allowed[s.Phase] {
		return fmt.Errorf("phase %q not valid for kind %q", s.Phase, s.Kind)
	}
	if s.Kind == KindCustom && s.Custom == nil {
		return fmt.Errorf("custom state missing setup payload")
	}
	if s.Kind == KindProps && s.Props == nil {
		return fmt.Errorf("props state missing card payload")
	}
	return nil
}

// Finished reports whether a user has already won or forfeited.
func (s *MatchState) Finished(userID uint) bool {
	for _, id := range s.Winners {
		if id == userID {
			return true
		}
	}
	for _, id := range s.Forfeits {
		if id == userID {
			return true
		}
	}
	return false
}

// AppendGuess records a guess in the seat's capped ring buffer.
func (s *MatchState) AppendGuess(seat Seat, record GuessRecord) {
	history := append(s.History[seat], record)
	if len(history) > GuessHistoryCap {
		history = history[len(history)-GuessHistoryCap:]
	}
	s.History[seat] = history
}

// Touch updates a seat's lastSeenAt, throttled to throttleMs between writes.
// Returns true when the timestamp actually moved.
func (s *MatchState) Touch(seat Seat, nowMs, throttleMs int64) bool {
	presence, ok := s.Presence[seat]
	if !ok {
		presence = &SeatPresence{}
		s.Presence[seat] = presence
	}
	if nowMs-presence.LastSeenAt < throttleMs {
		return false
	}
	presence.LastSeenAt = nowMs
	// A seat we just heard from is no longer disconnected.
	presence.DisconnectedAt = 0
	return true
}
