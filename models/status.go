package models

import (
	"time"
)

// RaffleStatus is the read-only snapshot served to callers: configuration,
// current round totals, and the last settled draw.
type RaffleStatus struct {
	State            RaffleState   `json:"state"`
	EntranceFee      int64         `json:"entrance_fee"`
	Interval         time.Duration `json:"interval"`
	ParticipantCount int           `json:"participant_count"`
	PotBalance       int64         `json:"pot_balance"`
	LastDrawAt       time.Time     `json:"last_draw_at"`
	PendingRequestID string        `json:"pending_request_id,omitempty"`
	LastWinner       *WinnerRecord `json:"last_winner,omitempty"`
}
