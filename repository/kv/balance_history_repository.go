package kv

import (
	"context"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/storage"
)

// balanceHistoryRepository keeps one global journal plus a per-account log
// of journal indexes
type balanceHistoryRepository struct {
	rw      storage.ReadWriter
	journal *storage.Log[entities.BalanceHistory]
}

func newBalanceHistoryRepository(rw storage.ReadWriter) *balanceHistoryRepository {
	return &balanceHistoryRepository{
		rw:      rw,
		journal: storage.NewLog[entities.BalanceHistory](rw, "balance_history"),
	}
}

func (r *balanceHistoryRepository) accountIndex(accountID string) *storage.Log[int64] {
	return storage.NewLog[int64](r.rw, "account_history/"+accountID)
}

// Record assigns the next journal id and indexes the entry by account
func (r *balanceHistoryRepository) Record(ctx context.Context, history *entities.BalanceHistory) error {
	count, err := r.journal.Len()
	if err != nil {
		return fmt.Errorf("failed to count balance history: %w", err)
	}
	history.ID = count + 1

	index, err := r.journal.Append(history)
	if err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}
	if _, err := r.accountIndex(history.AccountID).Append(&index); err != nil {
		return fmt.Errorf("failed to index balance history: %w", err)
	}
	return nil
}

func (r *balanceHistoryRepository) GetByAccount(ctx context.Context, accountID string, limit int) ([]*entities.BalanceHistory, error) {
	idx := r.accountIndex(accountID)
	n, err := idx.Len()
	if err != nil {
		return nil, fmt.Errorf("failed to count balance history: %w", err)
	}

	entries := []*entities.BalanceHistory{}
	for i := n - 1; i >= 0 && len(entries) < limit; i-- {
		journalIndex, err := idx.Get(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance history index: %w", err)
		}
		if journalIndex == nil {
			continue
		}
		entry, err := r.journal.Get(*journalIndex)
		if err != nil {
			return nil, fmt.Errorf("failed to read balance history: %w", err)
		}
		if entry != nil {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
