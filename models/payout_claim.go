package models

import (
	"time"
)

// PayoutClaim holds prize money waiting to be redeemed by its winner.
// Used when the service runs in pull-payout mode: settlement credits the
// claim instead of pushing funds into the winner's account.
type PayoutClaim struct {
	Address   Participant `db:"address"`
	Amount    int64       `db:"amount"`
	UpdatedAt time.Time   `db:"updated_at"`
}

// HasFunds checks whether there is anything left to redeem
func (c *PayoutClaim) HasFunds() bool {
	return c.Amount > 0
}
