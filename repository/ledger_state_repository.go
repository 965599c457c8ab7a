package repository

import (
	"context"
	"errors"
	"fmt"

	"jackpot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LedgerStateRepository stores the single ledger_state row
type LedgerStateRepository struct {
	q Queryable
}

func newLedgerStateRepository(q Queryable) *LedgerStateRepository {
	return &LedgerStateRepository{q: q}
}

// Get returns nil if the ledger was never initialized
func (r *LedgerStateRepository) Get(ctx context.Context) (*entities.LedgerState, error) {
	query := `
		SELECT owner_id, created_at, updated_at
		FROM ledger_state
		WHERE id = 1
	`

	var state entities.LedgerState
	err := r.q.QueryRow(ctx, query).Scan(&state.OwnerID, &state.CreatedAt, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}

	state.CreatedAt = state.CreatedAt.UTC()
	state.UpdatedAt = state.UpdatedAt.UTC()
	return &state, nil
}

// Save creates or replaces the ledger state
func (r *LedgerStateRepository) Save(ctx context.Context, state *entities.LedgerState) error {
	query := `
		INSERT INTO ledger_state (id, owner_id, created_at, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET owner_id = EXCLUDED.owner_id,
		    updated_at = EXCLUDED.updated_at
	`

	if _, err := r.q.Exec(ctx, query, state.OwnerID, state.CreatedAt, state.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}
	return nil
}
