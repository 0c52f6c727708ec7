package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/models"
)

// TransactionLogRepository implements the TransactionLogRepository interface
type TransactionLogRepository struct {
	q queryable
}

// NewTransactionLogRepository creates a new transaction log repository
func NewTransactionLogRepository(db *database.DB) *TransactionLogRepository {
	return &TransactionLogRepository{q: db.Pool}
}

// newTransactionLogRepositoryWithTx creates a new transaction log repository with a transaction
func newTransactionLogRepositoryWithTx(tx queryable) *TransactionLogRepository {
	return &TransactionLogRepository{q: tx}
}

// Record creates a new transaction log entry
func (r *TransactionLogRepository) Record(ctx context.Context, tx *models.AccountTransaction) error {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	query := `
		INSERT INTO account_transactions (address, balance_before, balance_after, change_amount, transaction_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		tx.Address,
		tx.BalanceBefore,
		tx.BalanceAfter,
		tx.ChangeAmount,
		tx.TransactionType,
		metadata,
	).Scan(&tx.ID, &tx.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record transaction for %s: %w", tx.Address, err)
	}

	return nil
}

// GetByAddress returns the most recent transactions for an address
func (r *TransactionLogRepository) GetByAddress(ctx context.Context, address models.Participant, limit int) ([]*models.AccountTransaction, error) {
	query := `
		SELECT id, address, balance_before, balance_after, change_amount, transaction_type, metadata, created_at
		FROM account_transactions
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, address, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for %s: %w", address, err)
	}
	defer rows.Close()

	var transactions []*models.AccountTransaction
	for rows.Next() {
		var tx models.AccountTransaction
		var metadata []byte
		if err := rows.Scan(
			&tx.ID,
			&tx.Address,
			&tx.BalanceBefore,
			&tx.BalanceAfter,
			&tx.ChangeAmount,
			&tx.TransactionType,
			&metadata,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &tx.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}
		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}
