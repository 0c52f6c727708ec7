package oracle

import (
	"time"
)

// RandomnessRequestMessage is the wire envelope published when a draw is
// armed. The oracle answers with a fulfillment carrying the same request id.
type RandomnessRequestMessage struct {
	RequestID     string    `json:"request_id"`
	KeyParams     string    `json:"key_params"`
	Confirmations uint16    `json:"confirmations"`
	CallbackLimit uint32    `json:"callback_limit"`
	NumWords      uint32    `json:"num_words"`
	RequestedAt   time.Time `json:"requested_at"`
}

// RandomnessFulfillmentMessage is the wire envelope the oracle publishes
// once the requested randomness is final
type RandomnessFulfillmentMessage struct {
	RequestID   string    `json:"request_id"`
	Words       []uint64  `json:"words"`
	FulfilledAt time.Time `json:"fulfilled_at"`
}
