package events

import (
	"context"
	"sync"
	"time"

	"github.com/Pikkuherkko/HH-Lotto/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeEntryRecorded       EventType = "entry_recorded"
	EventTypeRandomnessRequested EventType = "randomness_requested"
	EventTypeWinnerSelected      EventType = "winner_selected"
	EventTypePayoutClaimed       EventType = "payout_claimed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// EntryRecordedEvent represents an accepted raffle entry
type EntryRecordedEvent struct {
	Participant      models.Participant
	Amount           int64
	PotBalance       int64
	ParticipantCount int
}

func (e EntryRecordedEvent) Type() EventType {
	return EventTypeEntryRecorded
}

// RandomnessRequestedEvent represents a randomness request handed to the oracle
type RandomnessRequestedEvent struct {
	RequestID        string
	ParticipantCount int
	PotBalance       int64
	IssuedAt         time.Time
}

func (e RandomnessRequestedEvent) Type() EventType {
	return EventTypeRandomnessRequested
}

// WinnerSelectedEvent represents a settled draw
type WinnerSelectedEvent struct {
	Winner    models.Participant
	Amount    int64
	RequestID string
	DrawnAt   time.Time
}

func (e WinnerSelectedEvent) Type() EventType {
	return EventTypeWinnerSelected
}

// PayoutClaimedEvent represents a redeemed prize claim
type PayoutClaimedEvent struct {
	Participant models.Participant
	Amount      int64
}

func (e PayoutClaimedEvent) Type() EventType {
	return EventTypePayoutClaimed
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the emitter
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// A transactional event bus for holding pending events coupled to the Unit of Work.
// Flushes to the underlying event bus.
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// called after successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Events outlive the transaction that queued them, so emission uses a
	// background context rather than the possibly-expired transaction context.
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// called after db rollback or to clear state.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
