package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Difficulty constants
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Variant constants
const (
	VariantNormal = "normal"
	VariantCustom = "custom"
	VariantProps  = "props"
)

// Pricing table. Custom and props surcharge the base fee; four-player games
// price flat at the base mode fee regardless of variant.
const (
	FeeEasy   int64 = 29
	FeeMedium int64 = 49
	FeeHard   int64 = 69

	CustomSurcharge int64 = 6
	PropsSurcharge  int64 = 12
)

// Mode is the composite tag grouping compatible queue entries: base
// difficulty x variant x group size.
type Mode struct {
	Difficulty string
	Variant    string
	GroupSize  int
}

// ParseModeKey parses a "difficulty:variant:groupSize" key.
func ParseModeKey(key string) (Mode, error) {
	parts := strings.Split(key, ":")
	if len(parts) != 3 {
		return Mode{}, fmt.Errorf("malformed mode key %q", key)
	}
	size, err := strconv.Atoi(parts[2])
	if err != nil {
		return Mode{}, fmt.Errorf("malformed group size in mode key %q", key)
	}
	mode := Mode{Difficulty: parts[0], Variant: parts[1], GroupSize: size}
	if err := mode.Validate(); err != nil {
		return Mode{}, err
	}
	return mode, nil
}

func (m Mode) Key() string {
	return fmt.Sprintf("%s:%s:%d", m.Difficulty, m.Variant, m.GroupSize)
}

func (m Mode) Validate() error {
	switch m.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("unknown difficulty %q", m.Difficulty)
	}
	switch m.Variant {
	case VariantNormal, VariantCustom, VariantProps:
	default:
		return fmt.Errorf("unknown variant %q", m.Variant)
	}
	if m.GroupSize != 2 && m.GroupSize != 4 {
		return fmt.Errorf("group size must be 2 or 4, got %d", m.GroupSize)
	}
	if m.GroupSize == 4 && m.Variant == VariantCustom {
		return fmt.Errorf("custom variant is two-player only")
	}
	return nil
}

func (m Mode) baseFee() int64 {
	switch m.Difficulty {
	case DifficultyMedium:
		return FeeMedium
	case DifficultyHard:
		return FeeHard
	default:
		return FeeEasy
	}
}

// Fee returns the entry fee for this mode.
func (m Mode) Fee() int64 {
	if m.GroupSize == 4 {
		return m.baseFee()
	}
	switch m.Variant {
	case VariantCustom:
		return m.baseFee() + CustomSurcharge
	case VariantProps:
		return m.baseFee() + PropsSurcharge
	default:
		return m.baseFee()
	}
}

// CodeLen returns the hidden code length for this mode.
func (m Mode) CodeLen() int {
	switch m.Difficulty {
	case DifficultyMedium:
		return 4
	case DifficultyHard:
		return 5
	default:
		return 3
	}
}

// Kind returns the state-machine kind this mode plays under.
func (m Mode) Kind() Kind {
	if m.GroupSize == 4 {
		return KindGroup4
	}
	switch m.Variant {
	case VariantCustom:
		return KindCustom
	case VariantProps:
		return KindProps
	default:
		return KindNormal
	}
}
