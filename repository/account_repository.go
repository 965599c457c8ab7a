package repository

import (
	"context"
	"errors"
	"fmt"

	"jackpot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements account data access. Ticket ownership is not
// stored on the account row; it is read back from the tickets table.
type AccountRepository struct {
	q Queryable
}

func newAccountRepository(q Queryable) *AccountRepository {
	return &AccountRepository{q: q}
}

const accountColumns = `
	a.account_id,
	a.balance,
	a.created_at,
	COALESCE(
		(SELECT array_agg(t.id ORDER BY t.id) FROM tickets t WHERE t.account_id = a.account_id),
		'{}'
	) AS ticket_ids
`

// GetByID returns nil if the account was never saved
func (r *AccountRepository) GetByID(ctx context.Context, accountID string) (*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a WHERE a.account_id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return account, nil
}

// Save upserts the balance. created_at is fixed by the first save.
func (r *AccountRepository) Save(ctx context.Context, account *entities.Account) error {
	query := `
		INSERT INTO accounts (account_id, balance, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id) DO UPDATE
		SET balance = EXCLUDED.balance
	`

	if _, err := r.q.Exec(ctx, query, account.ID, account.Balance, account.CreatedAt); err != nil {
		return fmt.Errorf("failed to save account %s: %w", account.ID, err)
	}
	return nil
}

func (r *AccountRepository) GetAll(ctx context.Context) ([]*entities.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts a ORDER BY a.account_id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*entities.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (*entities.Account, error) {
	var account entities.Account
	if err := row.Scan(&account.ID, &account.Balance, &account.CreatedAt, &account.TicketIDs); err != nil {
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	if account.TicketIDs == nil {
		account.TicketIDs = []int64{}
	}
	return &account, nil
}
