package kv

import (
	"context"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/storage"
)

type accountRepository struct {
	table *storage.Table[entities.Account]
}

func newAccountRepository(rw storage.ReadWriter) *accountRepository {
	return &accountRepository{table: storage.NewTable[entities.Account](rw, "accounts")}
}

// GetByID returns nil if the account was never saved
func (r *accountRepository) GetByID(ctx context.Context, accountID string) (*entities.Account, error) {
	account, err := r.table.Get(accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	if account != nil && account.TicketIDs == nil {
		account.TicketIDs = []int64{}
	}
	return account, nil
}

func (r *accountRepository) Save(ctx context.Context, account *entities.Account) error {
	if err := r.table.Put(account.ID, account); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

func (r *accountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	accounts := []*entities.Account{}
	err := r.table.ForEach(func(_ string, account *entities.Account) error {
		accounts = append(accounts, account)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}
