package kv

import (
	"context"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/storage"
)

const ledgerStateKey = "ledger"

type ledgerStateRepository struct {
	table *storage.Table[entities.LedgerState]
}

func newLedgerStateRepository(rw storage.ReadWriter) *ledgerStateRepository {
	return &ledgerStateRepository{table: storage.NewTable[entities.LedgerState](rw, "state")}
}

func (r *ledgerStateRepository) Get(ctx context.Context) (*entities.LedgerState, error) {
	state, err := r.table.Get(ledgerStateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}
	return state, nil
}

func (r *ledgerStateRepository) Save(ctx context.Context, state *entities.LedgerState) error {
	if err := r.table.Put(ledgerStateKey, state); err != nil {
		return fmt.Errorf("failed to save ledger state: %w", err)
	}
	return nil
}
