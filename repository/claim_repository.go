package repository

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/jackc/pgx/v5"
)

// ClaimRepository implements the ClaimRepository interface
type ClaimRepository struct {
	q queryable
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{q: db.Pool}
}

// newClaimRepositoryWithTx creates a new claim repository with a transaction
func newClaimRepositoryWithTx(tx queryable) *ClaimRepository {
	return &ClaimRepository{q: tx}
}

// Credit adds prize money to an address's claim balance
func (r *ClaimRepository) Credit(ctx context.Context, address models.Participant, amount int64) error {
	query := `
		INSERT INTO payout_claims (address, amount)
		VALUES ($1, $2)
		ON CONFLICT (address)
		DO UPDATE SET amount = payout_claims.amount + EXCLUDED.amount, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, address, amount); err != nil {
		return fmt.Errorf("failed to credit claim for %s: %w", address, err)
	}

	return nil
}

// Get returns the claim for an address, or nil if none exists
func (r *ClaimRepository) Get(ctx context.Context, address models.Participant) (*models.PayoutClaim, error) {
	query := `
		SELECT address, amount, updated_at
		FROM payout_claims
		WHERE address = $1
	`

	var claim models.PayoutClaim
	err := r.q.QueryRow(ctx, query, address).Scan(
		&claim.Address,
		&claim.Amount,
		&claim.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim for %s: %w", address, err)
	}

	return &claim, nil
}

// Redeem zeroes the claim and returns the amount that was held.
// Meant to run inside a unit of work so the row lock covers the
// subsequent account credit.
func (r *ClaimRepository) Redeem(ctx context.Context, address models.Participant) (int64, error) {
	var amount int64
	err := r.q.QueryRow(ctx, `
		SELECT amount FROM payout_claims WHERE address = $1 FOR UPDATE
	`, address).Scan(&amount)

	if err == pgx.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock claim for %s: %w", address, err)
	}
	if amount == 0 {
		return 0, nil
	}

	if _, err := r.q.Exec(ctx, `
		UPDATE payout_claims SET amount = 0, updated_at = NOW() WHERE address = $1
	`, address); err != nil {
		return 0, fmt.Errorf("failed to redeem claim for %s: %w", address, err)
	}

	return amount, nil
}
