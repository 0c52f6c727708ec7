package repository

import (
	"context"
	"fmt"

	"github.com/Pikkuherkko/HH-Lotto/database"
	"github.com/Pikkuherkko/HH-Lotto/models"
)

// EntryRepository implements the EntryRepository interface
type EntryRepository struct {
	q queryable
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{q: db.Pool}
}

// newEntryRepositoryWithTx creates a new entry repository with a transaction
func newEntryRepositoryWithTx(tx queryable) *EntryRepository {
	return &EntryRepository{q: tx}
}

// Create journals an accepted entry
func (r *EntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := `
		INSERT INTO entries (participant, amount, entered_at)
		VALUES ($1, $2, COALESCE($3, NOW()))
		RETURNING id, entered_at
	`

	var enteredAt any
	if !entry.EnteredAt.IsZero() {
		enteredAt = entry.EnteredAt
	}

	err := r.q.QueryRow(ctx, query, entry.Participant, entry.Amount, enteredAt).
		Scan(&entry.ID, &entry.EnteredAt)
	if err != nil {
		return fmt.Errorf("failed to journal entry for %s: %w", entry.Participant, err)
	}

	return nil
}

// GetOpen returns the entries of the unsettled round in insertion order
func (r *EntryRepository) GetOpen(ctx context.Context) ([]*models.Entry, error) {
	query := `
		SELECT id, participant, amount, entered_at, draw_id
		FROM entries
		WHERE draw_id IS NULL
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get open entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var entry models.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.Participant,
			&entry.Amount,
			&entry.EnteredAt,
			&entry.DrawID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// MarkSettled stamps all open entries with the winner record that settled them
func (r *EntryRepository) MarkSettled(ctx context.Context, drawID int64) error {
	query := `
		UPDATE entries
		SET draw_id = $1
		WHERE draw_id IS NULL
	`

	if _, err := r.q.Exec(ctx, query, drawID); err != nil {
		return fmt.Errorf("failed to mark entries settled by draw %d: %w", drawID, err)
	}

	return nil
}
