package game

// NextTurn returns the next unfinished seat after current in seating order,
// wrapping around. Returns 0 when no unfinished seat remains. When current is
// not seated (or 0), rotation starts from the first seat.
func NextTurn(seats []uint, current uint, finished func(uint) bool) uint {
	n := len(seats)
	if n == 0 {
		return 0
	}

	start := 0
	for i, id := range seats {
		if id == current {
			start = i + 1
			break
		}
	}

	for i := 0; i < n; i++ {
		candidate := seats[(start+i)%n]
		if !finished(candidate) {
			return candidate
		}
	}
	return 0
}

// FirstTurn returns the first unfinished seat in seating order.
func FirstTurn(seats []uint, finished func(uint) bool) uint {
	for _, id := range seats {
		if !finished(id) {
			return id
		}
	}
	return 0
}
