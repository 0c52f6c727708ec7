package service

import (
	"context"

	"github.com/Pikkuherkko/HH-Lotto/events"
	"github.com/Pikkuherkko/HH-Lotto/models"
)

// AccountRepository defines the interface for account balance data access
type AccountRepository interface {
	// GetByAddress retrieves an account, or nil if none exists
	GetByAddress(ctx context.Context, address models.Participant) (*models.Account, error)

	// Create creates a new account with the given balance
	Create(ctx context.Context, address models.Participant, initialBalance int64) (*models.Account, error)

	// AddBalance adds to an account's balance atomically
	AddBalance(ctx context.Context, address models.Participant, amount int64) error

	// DeductBalance deducts from an account's balance atomically, failing if insufficient funds
	DeductBalance(ctx context.Context, address models.Participant, amount int64) error
}

// TransactionLogRepository defines the interface for the account audit log
type TransactionLogRepository interface {
	// Record creates a new transaction log entry
	Record(ctx context.Context, tx *models.AccountTransaction) error

	// GetByAddress returns the most recent transactions for an address
	GetByAddress(ctx context.Context, address models.Participant, limit int) ([]*models.AccountTransaction, error)
}

// EntryRepository defines the interface for the round entry journal
type EntryRepository interface {
	// Create journals an accepted entry
	Create(ctx context.Context, entry *models.Entry) error

	// GetOpen returns the entries of the unsettled round in insertion order
	GetOpen(ctx context.Context) ([]*models.Entry, error)

	// MarkSettled stamps all open entries with the winner record that settled them
	MarkSettled(ctx context.Context, drawID int64) error
}

// WinnerRepository defines the interface for winner history data access
type WinnerRepository interface {
	// Create persists a settled draw and assigns its ID
	Create(ctx context.Context, record *models.WinnerRecord) error

	// GetLatest returns the most recent winner, or nil before any draw
	GetLatest(ctx context.Context) (*models.WinnerRecord, error)

	// List returns the most recent winners, newest first
	List(ctx context.Context, limit int) ([]*models.WinnerRecord, error)
}

// ClaimRepository defines the interface for pull-payout claim balances
type ClaimRepository interface {
	// Credit adds prize money to an address's claim balance
	Credit(ctx context.Context, address models.Participant, amount int64) error

	// Get returns the claim for an address, or nil if none exists
	Get(ctx context.Context, address models.Participant) (*models.PayoutClaim, error)

	// Redeem zeroes the claim and returns the amount that was held
	Redeem(ctx context.Context, address models.Participant) (int64, error)
}

// RaffleService defines the interface for raffle operations
type RaffleService interface {
	// Enter records a paid entry for a participant
	Enter(ctx context.Context, participant models.Participant, amount int64) error

	// CheckReady reports whether a draw may be triggered, with diagnostics
	CheckReady() models.ReadinessCheck

	// TriggerDraw arms a draw and returns the randomness request id
	TriggerDraw(ctx context.Context) (string, error)

	// DeliverRandomness settles the round from an oracle fulfillment
	DeliverRandomness(ctx context.Context, requestID string, words []uint64) (*models.WinnerRecord, error)

	// Status returns the read-only raffle snapshot
	Status() models.RaffleStatus

	// Participants returns the current round's participant sequence
	Participants() []models.Participant

	// WinnerHistory returns the most recent settled draws
	WinnerHistory(ctx context.Context, limit int) ([]*models.WinnerRecord, error)
}

// AccountService defines the interface for account operations
type AccountService interface {
	// Deposit funds an account, creating it if needed
	Deposit(ctx context.Context, address models.Participant, amount int64) (*models.Account, error)

	// GetAccount retrieves an account, or nil if none exists
	GetAccount(ctx context.Context, address models.Participant) (*models.Account, error)

	// Claim redeems a pending prize claim into the account balance
	Claim(ctx context.Context, address models.Participant) (int64, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TransactionLogRepository() TransactionLogRepository
	EntryRepository() EntryRepository
	WinnerRepository() WinnerRepository
	ClaimRepository() ClaimRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
