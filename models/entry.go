package models

import (
	"time"
)

// Entry is the journal row for one accepted raffle entry.
// Rows with a nil DrawID belong to the round currently open; settlement
// stamps them with the winner record they were decided by.
type Entry struct {
	ID          int64       `db:"id"`
	Participant Participant `db:"participant"`
	Amount      int64       `db:"amount"`
	EnteredAt   time.Time   `db:"entered_at"`
	DrawID      *int64      `db:"draw_id"`
}

// IsSettled checks whether the entry was consumed by a completed draw
func (e *Entry) IsSettled() bool {
	return e.DrawID != nil
}
