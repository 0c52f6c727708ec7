package repository

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/models"
	"github.com/jackc/pgx/v5"
)

// WinnerRepository implements the WinnerRepository interface
type WinnerRepository struct {
	q queryable
}

// NewWinnerRepository creates a new winner repository
func NewWinnerRepository(db *database.DB) *WinnerRepository {
	return &WinnerRepository{q: db.Pool}
}

// newWinnerRepositoryWithTx creates a new winner repository with a transaction
func newWinnerRepositoryWithTx(tx queryable) *WinnerRepository {
	return &WinnerRepository{q: tx}
}

// Create persists a settled draw and assigns its ID
func (r *WinnerRepository) Create(ctx context.Context, record *models.WinnerRecord) error {
	query := `
		INSERT INTO winners (winner, amount, request_id, drawn_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.Winner,
		record.Amount,
		record.RequestID,
		record.DrawnAt,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create winner record for request %s: %w", record.RequestID, err)
	}

	return nil
}

// GetLatest returns the most recent winner, or nil before any draw
func (r *WinnerRepository) GetLatest(ctx context.Context) (*models.WinnerRecord, error) {
	query := `
		SELECT id, winner, amount, request_id, drawn_at, created_at
		FROM winners
		ORDER BY drawn_at DESC, id DESC
		LIMIT 1
	`

	var record models.WinnerRecord
	err := r.q.QueryRow(ctx, query).Scan(
		&record.ID,
		&record.Winner,
		&record.Amount,
		&record.RequestID,
		&record.DrawnAt,
		&record.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest winner: %w", err)
	}

	return &record, nil
}

// List returns the most recent winners, newest first
func (r *WinnerRepository) List(ctx context.Context, limit int) ([]*models.WinnerRecord, error) {
	query := `
		SELECT id, winner, amount, request_id, drawn_at, created_at
		FROM winners
		ORDER BY drawn_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var records []*models.WinnerRecord
	for rows.Next() {
		var record models.WinnerRecord
		if err := rows.Scan(
			&record.ID,
			&record.Winner,
			&record.Amount,
			&record.RequestID,
			&record.DrawnAt,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan winner record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}
