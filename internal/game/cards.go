package game

import (
	"crypto/rand"
	"math/big"
)

// Card effect names for the props variant.
const (
	CardSkipTurn        = "skip_turn"
	CardReverseDigits   = "reverse_digits"
	CardHideColors      = "hide_colors"
	CardDoubleOrNothing = "double_or_nothing"
)

// DeckSize is the number of cards dealt per match.
const DeckSize = 5

var cardTypes = []string{CardSkipTurn, CardReverseDigits, CardHideColors, CardDoubleOrNothing}

// ValidCard reports whether a name is a known card effect.
func ValidCard(name string) bool {
	for _, c := range cardTypes {
		if c == name {
			return true
		}
	}
	return false
}

// TargetsSelf reports whether a card is played on the caster rather than an
// opponent. double_or_nothing arms the caster's own solve.
func TargetsSelf(name string) bool {
	return name == CardDoubleOrNothing
}

// DealDeck draws DeckSize cards uniformly from the card types, with
// repetition.
func DealDeck() []string {
	deck := make([]string, DeckSize)
	for i := range deck {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(cardTypes))))
		if err != nil {
			deck[i] = CardSkipTurn
			continue
		}
		deck[i] = cardTypes[idx.Int64()]
	}
	return deck
}
