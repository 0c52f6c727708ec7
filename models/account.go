package models

import (
	"time"
)

// PotAccount is the reserved address entry fees are collected into.
// The winner payout is drawn from this account, so its balance mirrors
// the engine's in-memory pot between settlements.
const PotAccount Participant = "raffle:pot"

// Account represents a payable balance held by a participant address
type Account struct {
	Address   Participant `db:"address" json:"address"`
	Balance   int64       `db:"balance" json:"balance"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// TransactionType categorizes account balance changes
type TransactionType string

const (
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeDeposit     TransactionType = "deposit"
	TransactionTypeEntryFee    TransactionType = "entry_fee"
	TransactionTypePotCollect  TransactionType = "pot_collect"
	TransactionTypePrizePayout TransactionType = "prize_payout"
	TransactionTypeClaimCredit TransactionType = "claim_credit"
	TransactionTypeClaimRedeem TransactionType = "claim_redeem"
)

// AccountTransaction is an audit row for a single balance change
type AccountTransaction struct {
	ID              int64           `db:"id"`
	Address         Participant     `db:"address"`
	BalanceBefore   int64           `db:"balance_before"`
	BalanceAfter    int64           `db:"balance_after"`
	ChangeAmount    int64           `db:"change_amount"`
	TransactionType TransactionType `db:"transaction_type"`
	Metadata        map[string]any  `db:"metadata"`
	CreatedAt       time.Time       `db:"created_at"`
}
