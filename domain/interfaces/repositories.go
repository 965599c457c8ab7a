package interfaces

import (
	"context"

	"jackpot/domain/entities"
)

// LedgerStateRepository stores the singleton ledger record
type LedgerStateRepository interface {
	// Get returns the ledger state, or nil if the ledger was never initialized
	Get(ctx context.Context) (*entities.LedgerState, error)

	// Save creates or replaces the ledger state
	Save(ctx context.Context, state *entities.LedgerState) error
}

// AccountRepository is the key-to-record table of accounts
type AccountRepository interface {
	// GetByID returns the account, or nil if it was never persisted
	GetByID(ctx context.Context, accountID string) (*entities.Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *entities.Account) error

	// GetAll returns every persisted account
	GetAll(ctx context.Context) ([]*entities.Account, error)
}

// TicketRepository is the append-only log of tickets, indexed by ticket id
type TicketRepository interface {
	// GetByID returns the ticket, or nil if it does not exist
	GetByID(ctx context.Context, id int64) (*entities.Ticket, error)

	// GetByIDs returns tickets in the order of the ids given
	GetByIDs(ctx context.Context, ids []int64) ([]*entities.Ticket, error)

	// Create appends a ticket; its id must be Count()+1
	Create(ctx context.Context, ticket *entities.Ticket) error

	// Count returns how many tickets were ever created
	Count(ctx context.Context) (int64, error)
}

// JackpotRepository is the append-only log of rounds
type JackpotRepository interface {
	// GetLatest returns the most recently created round, or nil if none exists
	GetLatest(ctx context.Context) (*entities.Jackpot, error)

	// GetAll returns every round in creation order
	GetAll(ctx context.Context) ([]*entities.Jackpot, error)

	// Count returns how many rounds were ever created
	Count(ctx context.Context) (int64, error)

	// Append adds a new round; its id must be Count()+1
	Append(ctx context.Context, jackpot *entities.Jackpot) error

	// UpdateLatest persists changes to the latest round. Any other round is
	// immutable history and is rejected with domain.ErrRoundImmutable.
	UpdateLatest(ctx context.Context, jackpot *entities.Jackpot) error
}

// BalanceHistoryRepository journals every balance change
type BalanceHistoryRepository interface {
	// Record appends a history entry and assigns its id
	Record(ctx context.Context, history *entities.BalanceHistory) error

	// GetByAccount returns the newest entries for an account first
	GetByAccount(ctx context.Context, accountID string, limit int) ([]*entities.BalanceHistory, error)
}
