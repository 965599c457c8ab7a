package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// LedgerLockKey is the advisory lock key that serializes ledger transactions
const LedgerLockKey int64 = 0x6a61636b706f74

// BeginLocked starts a transaction holding the ledger's transaction-scoped
// advisory lock. The lock is released by commit or rollback, so at most one
// ledger operation runs at a time across every connected process.
func (db *DB) BeginLocked(ctx context.Context) (pgx.Tx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", LedgerLockKey); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			err = fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return nil, fmt.Errorf("failed to acquire ledger lock: %w", err)
	}

	return tx, nil
}
