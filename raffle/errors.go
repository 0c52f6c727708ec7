package raffle

import (
	"errors"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/models"
)

var (
	// ErrInsufficientPayment is returned when an entry pays less than the entrance fee
	ErrInsufficientPayment = errors.New("payment below entrance fee")

	// ErrRaffleClosed is returned when an entry arrives while a draw is pending
	ErrRaffleClosed = errors.New("raffle is not accepting entries")

	// ErrPaymentDeclined is returned when the entry payment could not be collected
	ErrPaymentDeclined = errors.New("entry payment declined")

	// ErrRequestAlreadyOutstanding guards the single-request invariant.
	// Unreachable while the state gate holds, defended regardless.
	ErrRequestAlreadyOutstanding = errors.New("a randomness request is already outstanding")

	// ErrUnknownRequest is returned for fulfillments that do not match the
	// outstanding request: replays, stale callbacks, or callbacks meant for
	// a different instance
	ErrUnknownRequest = errors.New("fulfillment does not match the outstanding request")

	// ErrPayoutTransferFailed is returned when the winner payout could not
	// be completed. The randomness request is already spent when this
	// happens, so the raffle remains in the calculating state.
	ErrPayoutTransferFailed = errors.New("winner payout transfer failed")

	// ErrUpkeepNotReady is the sentinel matched by UpkeepNotReadyError
	ErrUpkeepNotReady = errors.New("upkeep not ready")
)

// UpkeepNotReadyError reports a rejected draw trigger together with the
// snapshot the decision was made on.
type UpkeepNotReadyError struct {
	State            models.RaffleState
	ParticipantCount int
	PotBalance       int64
}

func (e *UpkeepNotReadyError) Error() string {
	return fmt.Sprintf("upkeep not ready: state=%s participants=%d pot=%d",
		e.State, e.ParticipantCount, e.PotBalance)
}

// Is makes errors.Is(err, ErrUpkeepNotReady) work for the typed error
func (e *UpkeepNotReadyError) Is(target error) bool {
	return target == ErrUpkeepNotReady
}
