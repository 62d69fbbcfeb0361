package game

// Payout maps user id to the amount credited at settlement.
type Payout map[uint]int64

// RefundAll returns everyone their own fee.
func RefundAll(fee int64, seats []uint) Payout {
	payout := make(Payout, len(seats))
	for _, id := range seats {
		payout[id] = fee
	}
	return payout
}

// WinnerPot pays the whole two-player pot to one winner.
func WinnerPot(fee int64, winner uint) Payout {
	return Payout{winner: fee * 2}
}

// rankedMultipliers is the four-player prize schedule by finish rank.
var rankedMultipliers = []int64{4, 3, 2, 0}

// RankedPayouts pays a four-player match by finish order: first place gets
// fee x4, second fee x3, third fee x2, last nothing.
func RankedPayouts(fee int64, ranking []uint) Payout {
	payout := make(Payout, len(ranking))
	for i, id := range ranking {
		mult := int64(0)
		if i < len(rankedMultipliers) {
			mult = rankedMultipliers[i]
		}
		payout[id] = fee * mult
	}
	return payout
}

// Ranking builds the finish order for ranked settlement: solvers first in
// solve order, then forfeiters ranked by how long they lasted (latest forfeit
// first), then any seat that never finished, in seating order.
func Ranking(seats, winners, forfeits []uint) []uint {
	ranked := make([]uint, 0, len(seats))
	placed := make(map[uint]bool, len(seats))

	for _, id := range winners {
		ranked = append(ranked, id)
		placed[id] = true
	}
	for i := len(forfeits) - 1; i >= 0; i-- {
		if !placed[forfeits[i]] {
			ranked = append(ranked, forfeits[i])
			placed[forfeits[i]] = true
		}
	}
	for _, id := range seats {
		if !placed[id] {
			ranked = append(ranked, id)
			placed[id] = true
		}
	}
	return ranked
}
