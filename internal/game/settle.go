package game

import "roulette-live-client/internal/models"

// Settle computes the total payout for a set of stakes given the winning
// number. A matching entry pays amount * (1 + multiplier): 35 for straights,
// 2 for dozens and columns, 1 for the even-money positions. Entries are
// summed independently, so the result does not depend on map iteration
// order, and it is never negative.
func Settle(bets map[models.BetKey]int64, winning int) int64 {
	if !models.ValidNumber(winning) {
		return 0
	}

	var payout int64
	for key, amount := range bets {
		if amount <= 0 {
			continue
		}
		if key.Wins(winning) {
			payout += amount * (1 + key.Type.Multiplier())
		}
	}
	return payout
}
