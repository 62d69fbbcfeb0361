package game

import (
	"testing"
)

func TestRefundAll(t *testing.T) {
	payout := RefundAll(29, []uint{10, 20})

	if len(payout) != 2 {
		t.Fatalf("payout size = %d, want 2", len(payout))
	}
	if payout[10] != 29 || payout[20] != 29 {
		t.Errorf("payout = %v, want 29 each", payout)
	}
}

func TestWinnerPot(t *testing.T) {
	payout := WinnerPot(29, 10)

	if payout[10] != 58 {
		t.Errorf("winner payout = %d, want 58", payout[10])
	}
	if len(payout) != 1 {
		t.Errorf("payout size = %d, want 1", len(payout))
	}
}

func TestRankedPayouts(t *testing.T) {
	payout := RankedPayouts(10, []uint{1, 2, 3, 4})

	tests := []struct {
		userID uint
		want   int64
	}{
		{1, 40},
		{2, 30},
		{3, 20},
		{4, 0},
	}

	for _, tt := range tests {
		if payout[tt.userID] != tt.want {
			t.Errorf("user %d payout = %d, want %d", tt.userID, payout[tt.userID], tt.want)
		}
	}
}

func TestRanking(t *testing.T) {
	tests := []struct {
		name     string
		seats    []uint
		winners  []uint
		forfeits []uint
		want     []uint
	}{
		{
			name:    "All solved in order",
			seats:   []uint{1, 2, 3, 4},
			winners: []uint{3, 1, 4, 2},
			want:    []uint{3, 1, 4, 2},
		},
		{
			name:     "Forfeiters ranked by survival, latest first",
			seats:    []uint{1, 2, 3, 4},
			winners:  []uint{2},
			forfeits: []uint{4, 1, 3},
			want:     []uint{2, 3, 1, 4},
		},
		{
			name:    "Unfinished seats fill the tail in seat order",
			seats:   []uint{1, 2, 3, 4},
			winners: []uint{3, 2, 4},
			want:    []uint{3, 2, 4, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ranking(tt.seats, tt.winners, tt.forfeits)
			if len(got) != len(tt.want) {
				t.Fatalf("ranking length = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rank %d = %d, want %d", i+1, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNextTurn(t *testing.T) {
	finished := func(done ...uint) func(uint) bool {
		set := make(map[uint]bool)
		for _, id := range done {
			set[id] = true
		}
		return func(id uint) bool { return set[id] }
	}

	tests := []struct {
		name    string
		seats   []uint
		current uint
		done    []uint
		want    uint
	}{
		{
			name:    "Two players alternate",
			seats:   []uint{1, 2},
			current: 1,
			want:    2,
		},
		{
			name:    "Wraps around",
			seats:   []uint{1, 2},
			current: 2,
			want:    1,
		},
		{
			name:    "Skips finished seats",
			seats:   []uint{1, 2, 3, 4},
			current: 1,
			done:    []uint{2, 3},
			want:    4,
		},
		{
			name:    "All finished",
			seats:   []uint{1, 2},
			current: 1,
			done:    []uint{1, 2},
			want:    0,
		},
		{
			name:    "Unknown current starts from the front",
			seats:   []uint{1, 2, 3, 4},
			current: 0,
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextTurn(tt.seats, tt.current, finished(tt.done...))
			if got != tt.want {
				t.Errorf("NextTurn() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDealDeck(t *testing.T) {
	deck := DealDeck()

	if len(deck) != DeckSize {
		t.Fatalf("deck size = %d, want %d", len(deck), DeckSize)
	}
	for i, card := range deck {
		if !ValidCard(card) {
			t.Errorf("deck[%d] = %q is not a known card", i, card)
		}
	}
}
