package models

import (
	"fmt"
	"time"
)

// RaffleState represents the lifecycle state of the raffle
type RaffleState string

const (
	RaffleStateOpen        RaffleState = "open"
	RaffleStateCalculating RaffleState = "calculating"
)

// AcceptsEntries checks if entries may be recorded in this state
func (s RaffleState) AcceptsEntries() bool {
	return s == RaffleStateOpen
}

// Participant is an opaque payable address joining the raffle
type Participant string

// Valid checks that the address is non-empty
func (p Participant) Valid() bool {
	return p != ""
}

// RoundConfig holds the immutable parameters of a raffle instance.
// It is set once at construction and never changes afterwards.
type RoundConfig struct {
	EntranceFee   int64         // minimum payment to join a round
	Interval      time.Duration // minimum time between draws
	KeyParams     string        // oracle key parameters, opaque to this service
	Confirmations uint16        // oracle confirmation depth
	CallbackLimit uint32        // resource budget for the oracle callback
	NumWords      uint32        // random words per request, always 1
}

// Validate checks the config for values the engine cannot operate with
func (c RoundConfig) Validate() error {
	if c.EntranceFee <= 0 {
		return fmt.Errorf("entrance fee must be positive, got %d", c.EntranceFee)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("draw interval must be positive, got %v", c.Interval)
	}
	if c.NumWords != 1 {
		return fmt.Errorf("protocol requests exactly one random word, got %d", c.NumWords)
	}
	return nil
}

// PendingRequest tracks the sole outstanding randomness request.
// It exists only between request issuance and its matching fulfillment.
type PendingRequest struct {
	ID       string
	IssuedAt time.Time
}

// WinnerRecord represents a settled draw
type WinnerRecord struct {
	ID        int64       `db:"id" json:"id"`
	Winner    Participant `db:"winner" json:"winner"`
	Amount    int64       `db:"amount" json:"amount"`
	RequestID string      `db:"request_id" json:"request_id"`
	DrawnAt   time.Time   `db:"drawn_at" json:"drawn_at"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

// ReadinessCheck is the diagnostic snapshot returned by the readiness poll
type ReadinessCheck struct {
	Ready            bool        `json:"ready"`
	State            RaffleState `json:"state"`
	ParticipantCount int         `json:"participant_count"`
	PotBalance       int64       `json:"pot_balance"`
	LastDrawAt       time.Time   `json:"last_draw_at"`
	CheckedAt        time.Time   `json:"checked_at"`
}
