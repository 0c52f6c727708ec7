package repository

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByAddress retrieves an account by its address
func (r *AccountRepository) GetByAddress(ctx context.Context, address models.Participant) (*models.Account, error) {
	query := `
		SELECT address, balance, created_at, updated_at
		FROM accounts
		WHERE address = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, address).Scan(
		&account.Address,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", address, err)
	}

	return &account, nil
}

// Create creates a new account with the given balance
func (r *AccountRepository) Create(ctx context.Context, address models.Participant, initialBalance int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (address, balance)
		VALUES ($1, $2)
		RETURNING address, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, address, initialBalance).Scan(
		&account.Address,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create account %s: %w", address, err)
	}

	return &account, nil
}

// AddBalance adds to an account's balance atomically
func (r *AccountRepository) AddBalance(ctx context.Context, address models.Participant, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE address = $2
	`

	result, err := r.q.Exec(ctx, query, amount, address)
	if err != nil {
		return fmt.Errorf("failed to add balance for account %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %s not found", address)
	}

	return nil
}

// DeductBalance deducts from an account's balance atomically, failing if insufficient funds
func (r *AccountRepository) DeductBalance(ctx context.Context, address models.Participant, amount int64) error {
	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE address = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, address)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for account %s: %w", address, err)
	}

	if result.RowsAffected() == 0 {
		account, err := r.GetByAddress(ctx, address)
		if err != nil {
			return err
		}
		if account == nil {
			return fmt.Errorf("account %s not found", address)
		}
		return fmt.Errorf("insufficient balance: have %d, need %d", account.Balance, amount)
	}

	return nil
}
