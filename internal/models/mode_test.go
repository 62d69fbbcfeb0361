package models

import "testing"

func TestParseModeKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"easy normal duo", "easy:normal:2", false},
		{"hard props group", "hard:props:4", false},
		{"custom duo", "medium:custom:2", false},
		{"custom group rejected", "medium:custom:4", true},
		{"unknown difficulty", "extreme:normal:2", true},
		{"unknown variant", "easy:chaos:2", true},
		{"bad group size", "easy:normal:3", true},
		{"missing parts", "easy:normal", true},
		{"non-numeric size", "easy:normal:two", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := ParseModeKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModeKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err == nil && mode.Key() != tt.key {
				t.Errorf("round trip = %q, want %q", mode.Key(), tt.key)
			}
		})
	}
}

func TestModeFee(t *testing.T) {
	tests := []struct {
		key  string
		want int64
	}{
		{"easy:normal:2", 29},
		{"medium:normal:2", 49},
		{"hard:normal:2", 69},
		{"easy:custom:2", 35},
		{"hard:custom:2", 75},
		{"easy:props:2", 41},
		{"medium:props:2", 61},
		// Group tables price flat at the base fee.
		{"easy:normal:4", 29},
		{"hard:props:4", 69},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			mode, err := ParseModeKey(tt.key)
			if err != nil {
				t.Fatalf("ParseModeKey(%q) failed: %v", tt.key, err)
			}
			if got := mode.Fee(); got != tt.want {
				t.Errorf("Fee() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestModeCodeLen(t *testing.T) {
	tests := []struct {
		difficulty string
		want       int
	}{
		{DifficultyEasy, 3},
		{DifficultyMedium, 4},
		{DifficultyHard, 5},
	}

	for _, tt := range tests {
		mode := Mode{Difficulty: tt.difficulty, Variant: VariantNormal, GroupSize: 2}
		if got := mode.CodeLen(); got != tt.want {
			t.Errorf("CodeLen(%s) = %d, want %d", tt.difficulty, got, tt.want)
		}
	}
}

func TestModeKind(t *testing.T) {
	tests := []struct {
		key  string
		want Kind
	}{
		{"easy:normal:2", KindNormal},
		{"easy:custom:2", KindCustom},
		{"easy:props:2", KindProps},
		{"easy:normal:4", KindGroup4},
		{"easy:props:4", KindGroup4},
	}

	for _, tt := range tests {
		mode, err := ParseModeKey(tt.key)
		if err != nil {
			t.Fatalf("ParseModeKey(%q) failed: %v", tt.key, err)
		}
		if got := mode.Kind(); got != tt.want {
			t.Errorf("Kind(%s) = %s, want %s", tt.key, got, tt.want)
		}
	}
}
