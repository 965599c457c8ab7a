package interfaces

import (
	"context"
	"time"

	"jackpot/domain/entities"
	"jackpot/domain/events"
)

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(event events.Event) error
}

// TransactionalEventPublisher holds events until the surrounding unit of
// work commits
type TransactionalEventPublisher interface {
	EventPublisher

	// Flush publishes all pending events after a successful commit
	Flush(ctx context.Context) error

	// Discard drops pending events after a rollback
	Discard()
}

// UnitOfWork scopes one atomic ledger operation. Begin enters the
// ledger-wide critical section; Commit or Rollback leaves it.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	LedgerStateRepository() LedgerStateRepository
	AccountRepository() AccountRepository
	TicketRepository() TicketRepository
	JackpotRepository() JackpotRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Clock supplies the current time
type Clock interface {
	Now() time.Time
}

// RandomSource supplies integers in [1, limit]
type RandomSource interface {
	NextUint(limit uint64) (uint64, error)
}

// LedgerMetrics records operational metrics for the ledger
type LedgerMetrics interface {
	RecordOperation(operation string, err error)
	RecordBalanceTransaction(transactionType entities.TransactionType, amount int64)
	RecordTicketSold(price int64)
	RecordDraw(closed bool, winners int)
}
