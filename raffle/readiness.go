package raffle

import (
	"time"

	"github.com/Pikkuherkko/HH-Lotto/models"
)

// Ready reports whether a draw may be triggered. All four conjuncts are
// independently necessary: the raffle is open, the interval since the last
// draw has elapsed, at least one participant entered, and the pot holds
// funds. Pure function, no side effects.
func Ready(state models.RaffleState, now, lastDrawAt time.Time, interval time.Duration, participantCount int, potBalance int64) bool {
	isOpen := state == models.RaffleStateOpen
	intervalElapsed := now.Sub(lastDrawAt) > interval
	hasParticipants := participantCount > 0
	hasBalance := potBalance > 0
	return isOpen && intervalElapsed && hasParticipants && hasBalance
}
