package game

// Per-position guess marks.
const (
	MarkOK   = "ok"   // right digit, right position
	MarkWarn = "warn" // right digit, wrong position
	MarkBad  = "bad"  // digit not in the target
	MarkHide = "hide" // neutral marker when the result is masked
)

// Evaluate scores a fixed-length digit guess against a target with unique
// digits, in two passes. The first pass marks exact positions and removes
// them from a remaining-digit multiset; the second marks warn for non-exact
// guessed digits still present, consuming one occurrence per match, left to
// right. That consumption order is the tie-break when the guess repeats a
// digit. Returns the marks and whether the guess solved the code.
func Evaluate(guess, target string) ([]string, bool) {
	n := len(target)
	marks := make([]string, n)

	var remaining [10]int
	for i := 0; i < n; i++ {
		if guess[i] == target[i] {
			marks[i] = MarkOK
		} else {
			remaining[target[i]-'0']++
		}
	}

	solved := true
	for i := 0; i < n; i++ {
		if marks[i] == MarkOK {
			continue
		}
		solved = false
		digit := guess[i] - '0'
		if remaining[digit] > 0 {
			remaining[digit]--
			marks[i] = MarkWarn
		} else {
			marks[i] = MarkBad
		}
	}

	return marks, solved
}

// MaskMarks replaces every mark with the neutral marker, revealing nothing.
func MaskMarks(marks []string) []string {
	masked := make([]string, len(marks))
	for i := range masked {
		masked[i] = MarkHide
	}
	return masked
}

// ReverseDigits reverses a guess string.
func ReverseDigits(guess string) string {
	b := []byte(guess)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ValidGuess reports whether a guess is exactly n ASCII digits.
func ValidGuess(guess string, n int) bool {
	if len(guess) != n {
		return false
	}
	for i := 0; i < n; i++ {
		if guess[i] < '0' || guess[i] > '9' {
			return false
		}
	}
	return true
}

// ValidSecret reports whether a custom secret is n digits with no repeats.
func ValidSecret(secret string, n int) bool {
	if !ValidGuess(secret, n) {
		return false
	}
	var seen [10]bool
	for i := 0; i < n; i++ {
		digit := secret[i] - '0'
		if seen[digit] {
			return false
		}
		seen[digit] = true
	}
	return true
}
