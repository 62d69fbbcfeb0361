package game

import (
	"strings"
	"testing"
)

func TestEvaluate_ExactGuessSolves(t *testing.T) {
	codes := []string{"123", "047", "9305", "84216", "012345"}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			marks, solved := Evaluate(code, code)
			if !solved {
				t.Errorf("Evaluate(%q, %q) solved = false, want true", code, code)
			}
			for i, mark := range marks {
				if mark != MarkOK {
					t.Errorf("position %d mark = %q, want %q", i, mark, MarkOK)
				}
			}
		})
	}
}

func TestEvaluate_Marks(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   []string
		solved bool
	}{
		{
			name:   "All wrong",
			guess:  "456",
			target: "123",
			want:   []string{MarkBad, MarkBad, MarkBad},
		},
		{
			name:   "All displaced",
			guess:  "312",
			target: "123",
			want:   []string{MarkWarn, MarkWarn, MarkWarn},
		},
		{
			name:   "Mixed",
			guess:  "153",
			target: "123",
			want:   []string{MarkOK, MarkBad, MarkOK},
		},
		{
			name:   "Exact match consumed before warn",
			guess:  "113",
			target: "123",
			want:   []string{MarkOK, MarkBad, MarkOK},
		},
		{
			name:   "Duplicate guessed digit consumes one occurrence left to right",
			guess:  "211",
			target: "123",
			want:   []string{MarkWarn, MarkWarn, MarkBad},
		},
		{
			name:   "Duplicate adjacent to its exact slot",
			guess:  "122",
			target: "123",
			want:   []string{MarkOK, MarkOK, MarkBad},
		},
		{
			name:   "Solve",
			guess:  "9305",
			target: "9305",
			want:   []string{MarkOK, MarkOK, MarkOK, MarkOK},
			solved: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marks, solved := Evaluate(tt.guess, tt.target)
			if solved != tt.solved {
				t.Errorf("Evaluate(%q, %q) solved = %v, want %v", tt.guess, tt.target, solved, tt.solved)
			}
			if len(marks) != len(tt.want) {
				t.Fatalf("marks length = %d, want %d", len(marks), len(tt.want))
			}
			for i := range marks {
				if marks[i] != tt.want[i] {
					t.Errorf("position %d mark = %q, want %q", i, marks[i], tt.want[i])
				}
			}
		})
	}
}

func TestEvaluate_NoDoubleCounting(t *testing.T) {
	// ok+warn marks for any digit never exceed its occurrences in the target.
	tests := []struct {
		guess  string
		target string
	}{
		{"111", "123"},
		{"1111", "1234"},
		{"2222", "1234"},
		{"33333", "30124"},
		{"010", "012"},
	}

	for _, tt := range tests {
		t.Run(tt.guess+"_vs_"+tt.target, func(t *testing.T) {
			marks, _ := Evaluate(tt.guess, tt.target)
			for d := byte('0'); d <= '9'; d++ {
				hits := 0
				for i := range marks {
					if tt.guess[i] == d && (marks[i] == MarkOK || marks[i] == MarkWarn) {
						hits++
					}
				}
				occurrences := strings.Count(tt.target, string(d))
				if hits > occurrences {
					t.Errorf("digit %c scored %d ok/warn marks, target has %d occurrences", d, hits, occurrences)
				}
			}
		})
	}
}

func TestReverseDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123", "321"},
		{"1234", "4321"},
		{"05", "50"},
		{"7", "7"},
	}

	for _, tt := range tests {
		if got := ReverseDigits(tt.in); got != tt.want {
			t.Errorf("ReverseDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskMarks(t *testing.T) {
	masked := MaskMarks([]string{MarkOK, MarkWarn, MarkBad})
	for i, mark := range masked {
		if mark != MarkHide {
			t.Errorf("position %d mark = %q, want %q", i, mark, MarkHide)
		}
	}
}

func TestValidGuess(t *testing.T) {
	tests := []struct {
		name  string
		guess string
		n     int
		want  bool
	}{
		{"Valid three digits", "123", 3, true},
		{"Repeated digits allowed in guesses", "111", 3, true},
		{"Too short", "12", 3, false},
		{"Too long", "1234", 3, false},
		{"Non-digit", "12a", 3, false},
		{"Empty", "", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidGuess(tt.guess, tt.n); got != tt.want {
				t.Errorf("ValidGuess(%q, %d) = %v, want %v", tt.guess, tt.n, got, tt.want)
			}
		})
	}
}

func TestValidSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		n      int
		want   bool
	}{
		{"Valid secret", "123", 3, true},
		{"Repeated digit rejected", "121", 3, false},
		{"Leading zero allowed", "012", 3, true},
		{"Wrong length", "1234", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSecret(tt.secret, tt.n); got != tt.want {
				t.Errorf("ValidSecret(%q, %d) = %v, want %v", tt.secret, tt.n, got, tt.want)
			}
		})
	}
}

func TestGenerateAnswer(t *testing.T) {
	for _, n := range []int{3, 4, 5, 6} {
		for trial := 0; trial < 20; trial++ {
			answer := GenerateAnswer(n)
			if len(answer) != n {
				t.Fatalf("GenerateAnswer(%d) length = %d", n, len(answer))
			}
			if !ValidSecret(answer, n) {
				t.Fatalf("GenerateAnswer(%d) = %q has repeats or non-digits", n, answer)
			}
		}
	}
}
