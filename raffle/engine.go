package raffle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"

	log "github.com/sirupsen/logrus"
)

// RequestParams carries the round parameters forwarded to the oracle
type RequestParams struct {
	KeyParams     string
	Confirmations uint16
	CallbackLimit uint32
	NumWords      uint32
}

// RandomnessSource is the outbound oracle boundary. Request hands the round
// parameters to the oracle and returns the opaque request identifier; it must
// not block waiting for the fulfillment, which arrives later through
// DeliverRandomness.
type RandomnessSource interface {
	Request(ctx context.Context, params RequestParams) (string, error)
}

// PaymentCollector collects an accepted entry payment. A nil collector
// disables money movement on entry (the engine still enforces the fee).
type PaymentCollector interface {
	Collect(ctx context.Context, from models.Participant, amount int64) error
}

// Payer transfers the pot to the winner during settlement
type Payer interface {
	Pay(ctx context.Context, to models.Participant, amount int64) error
}

// Publisher is the notification boundary; *events.Bus satisfies it
type Publisher interface {
	Emit(ctx context.Context, event events.Event)
}

// Engine owns all raffle state: the participant ledger, the pot, the
// open/calculating state, the sole pending randomness request, and the last
// winner. Every operation is serialized through one mutex so its observed
// state and resulting transition are atomic with respect to every other
// operation, and every error leaves the state untouched.
type Engine struct {
	cfg       models.RoundConfig
	source    RandomnessSource
	collector PaymentCollector
	payer     Payer
	bus       Publisher
	now       func() time.Time

	mu           sync.Mutex
	state        models.RaffleState
	participants []models.Participant
	pot          int64
	lastDrawAt   time.Time
	pending      *models.PendingRequest
	lastWinner   *models.WinnerRecord
}

// Option customizes engine construction
type Option func(*Engine)

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a raffle engine in the open state with an empty ledger
func New(cfg models.RoundConfig, source RandomnessSource, collector PaymentCollector, payer Payer, bus Publisher, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid round config: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("randomness source is required")
	}
	if payer == nil {
		return nil, fmt.Errorf("payer is required")
	}

	e := &Engine{
		cfg:       cfg,
		source:    source,
		collector: collector,
		payer:     payer,
		bus:       bus,
		now:       time.Now,
		state:     models.RaffleStateOpen,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastDrawAt = e.now()
	return e, nil
}

// Enter records a paid entry into the current round. The same participant may
// enter multiple times; each accepted entry is one independent chance.
func (e *Engine) Enter(ctx context.Context, participant models.Participant, amount int64) error {
	if !participant.Valid() {
		return fmt.Errorf("participant address is empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.AcceptsEntries() {
		return ErrRaffleClosed
	}
	if amount < e.cfg.EntranceFee {
		return fmt.Errorf("%w: paid %d, entrance fee is %d", ErrInsufficientPayment, amount, e.cfg.EntranceFee)
	}
	if e.collector != nil {
		if err := e.collector.Collect(ctx, participant, amount); err != nil {
			return fmt.Errorf("%w: %w", ErrPaymentDeclined, err)
		}
	}

	e.participants = append(e.participants, participant)
	e.pot += amount

	e.emit(ctx, events.EntryRecordedEvent{
		Participant:      participant,
		Amount:           amount,
		PotBalance:       e.pot,
		ParticipantCount: len(e.participants),
	})

	log.WithFields(log.Fields{
		"participant": participant,
		"amount":      amount,
		"pot":         e.pot,
		"entries":     len(e.participants),
	}).Debug("Entry recorded")

	return nil
}

// CheckReady returns the readiness predicate together with the diagnostic
// snapshot it was evaluated on. Never mutates state.
func (e *Engine) CheckReady() models.ReadinessCheck {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	return models.ReadinessCheck{
		Ready:            Ready(e.state, now, e.lastDrawAt, e.cfg.Interval, len(e.participants), e.pot),
		State:            e.state,
		ParticipantCount: len(e.participants),
		PotBalance:       e.pot,
		LastDrawAt:       e.lastDrawAt,
		CheckedAt:        now,
	}
}

// TriggerDraw arms a draw: it recomputes the readiness predicate, issues one
// randomness request, and transitions the raffle to calculating. Concurrent
// callers are serialized; only the first to observe the predicate true gets a
// request issued, the rest fail with UpkeepNotReadyError against the
// now-calculating state.
func (e *Engine) TriggerDraw(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !Ready(e.state, now, e.lastDrawAt, e.cfg.Interval, len(e.participants), e.pot) {
		return "", &UpkeepNotReadyError{
			State:            e.state,
			ParticipantCount: len(e.participants),
			PotBalance:       e.pot,
		}
	}
	if e.pending != nil {
		return "", ErrRequestAlreadyOutstanding
	}

	requestID, err := e.source.Request(ctx, RequestParams{
		KeyParams:     e.cfg.KeyParams,
		Confirmations: e.cfg.Confirmations,
		CallbackLimit: e.cfg.CallbackLimit,
		NumWords:      e.cfg.NumWords,
	})
	if err != nil {
		return "", fmt.Errorf("failed to request randomness: %w", err)
	}

	e.state = models.RaffleStateCalculating
	e.lastDrawAt = now
	e.pending = &models.PendingRequest{ID: requestID, IssuedAt: now}

	e.emit(ctx, events.RandomnessRequestedEvent{
		RequestID:        requestID,
		ParticipantCount: len(e.participants),
		PotBalance:       e.pot,
		IssuedAt:         now,
	})

	log.WithFields(log.Fields{
		"requestId":    requestID,
		"participants": len(e.participants),
		"pot":          e.pot,
	}).Info("Draw triggered, randomness requested")

	return requestID, nil
}

// DeliverRandomness is the oracle fulfillment callback. A matching request id
// consumes the pending request and settles the round as one atomic unit:
// winner selection from the snapshot present at request time, payout of the
// whole pot, winner record, ledger reset, and reopen. Unmatched ids mutate
// nothing.
func (e *Engine) DeliverRandomness(ctx context.Context, requestID string, words []uint64) (*models.WinnerRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil || e.pending.ID != requestID {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, requestID)
	}
	if len(words) == 0 {
		// Malformed callback. The request stays outstanding so a corrected
		// delivery can still settle the round.
		return nil, fmt.Errorf("fulfillment %q carried no random words", requestID)
	}

	n := len(e.participants)
	if n == 0 {
		// The calculating state is only reachable with participants present.
		panic("raffle: calculating state reached with no participants")
	}

	e.pending = nil

	// Only the first word is consumed; the protocol requests exactly one.
	winner := e.participants[int(words[0]%uint64(n))]
	amount := e.pot
	now := e.now()

	if err := e.payer.Pay(ctx, winner, amount); err != nil {
		// The randomness request is already spent and the protocol has no way
		// to reissue it, so the raffle stays in calculating with the ledger
		// intact until operators intervene.
		log.WithFields(log.Fields{
			"requestId": requestID,
			"winner":    winner,
			"amount":    amount,
			"error":     err,
		}).Error("Winner payout failed, raffle is stuck in calculating")
		return nil, fmt.Errorf("%w: %w", ErrPayoutTransferFailed, err)
	}

	record := &models.WinnerRecord{
		Winner:    winner,
		Amount:    amount,
		RequestID: requestID,
		DrawnAt:   now,
	}
	e.lastWinner = record
	e.participants = nil
	e.pot = 0
	e.state = models.RaffleStateOpen
	e.lastDrawAt = now

	e.emit(ctx, events.WinnerSelectedEvent{
		Winner:    winner,
		Amount:    amount,
		RequestID: requestID,
		DrawnAt:   now,
	})

	log.WithFields(log.Fields{
		"requestId": requestID,
		"winner":    winner,
		"amount":    amount,
		"entries":   n,
	}).Info("Winner selected, raffle reopened")

	return record, nil
}

// Restore reloads journaled entries of an unsettled round and the last
// settled winner into a fresh engine. It never recreates a pending request:
// a fulfillment issued before the restart is rejected as unknown and the
// round has to be re-triggered.
func (e *Engine) Restore(entries []*models.Entry, lastWinner *models.WinnerRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.RaffleStateOpen || len(e.participants) > 0 {
		return fmt.Errorf("restore requires a fresh engine")
	}
	for _, entry := range entries {
		e.participants = append(e.participants, entry.Participant)
		e.pot += entry.Amount
	}
	if lastWinner != nil {
		record := *lastWinner
		e.lastWinner = &record
		if !record.DrawnAt.IsZero() {
			e.lastDrawAt = record.DrawnAt
		}
	}

	log.WithFields(log.Fields{
		"entries": len(entries),
		"pot":     e.pot,
	}).Info("Restored open round from journal")

	return nil
}

// Config returns the immutable round configuration
func (e *Engine) Config() models.RoundConfig {
	return e.cfg
}

// State returns the current raffle state
func (e *Engine) State() models.RaffleState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EntranceFee returns the configured entrance fee
func (e *Engine) EntranceFee() int64 {
	return e.cfg.EntranceFee
}

// Interval returns the configured draw interval
func (e *Engine) Interval() time.Duration {
	return e.cfg.Interval
}

// Participants returns a copy of the current participant sequence
func (e *Engine) Participants() []models.Participant {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Participant, len(e.participants))
	copy(out, e.participants)
	return out
}

// ParticipantCount returns the number of entries in the current round
func (e *Engine) ParticipantCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.participants)
}

// Pot returns the accumulated balance of the current round
func (e *Engine) Pot() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pot
}

// LastWinner returns the most recent winner record, or nil before any draw
func (e *Engine) LastWinner() *models.WinnerRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastWinner == nil {
		return nil
	}
	record := *e.lastWinner
	return &record
}

// LastDrawAt returns the timestamp of the last draw transition
func (e *Engine) LastDrawAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastDrawAt
}

// PendingRequest returns a copy of the outstanding request, or nil
func (e *Engine) PendingRequest() *models.PendingRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending == nil {
		return nil
	}
	pending := *e.pending
	return &pending
}

func (e *Engine) emit(ctx context.Context, event events.Event) {
	if e.bus != nil {
		e.bus.Emit(ctx, event)
	}
}
