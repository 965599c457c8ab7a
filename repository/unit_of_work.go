package repository

import (
	"context"
	"errors"
	"fmt"

	"jackpot/database"
	"jackpot/domain/interfaces"
	"jackpot/events"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// UnitOfWorkFactory creates PostgreSQL-backed units of work
type UnitOfWorkFactory struct {
	db             *database.DB
	eventPublisher interfaces.EventPublisher
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory. Committed events are
// delivered to eventPublisher.
func NewUnitOfWorkFactory(db *database.DB, eventPublisher interfaces.EventPublisher) *UnitOfWorkFactory {
	if eventPublisher == nil {
		eventPublisher = events.NewBus()
	}
	return &UnitOfWorkFactory{
		db:             db,
		eventPublisher: eventPublisher,
	}
}

func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return &unitOfWork{
		db:             f.db,
		eventPublisher: f.eventPublisher,
	}
}

// unitOfWork holds a transaction with the ledger advisory lock
type unitOfWork struct {
	db             *database.DB
	eventPublisher interfaces.EventPublisher

	tx                 pgx.Tx
	ctx                context.Context
	eventBus           interfaces.TransactionalEventPublisher
	ledgerStateRepo    *LedgerStateRepository
	accountRepo        *AccountRepository
	ticketRepo         *TicketRepository
	jackpotRepo        *JackpotRepository
	balanceHistoryRepo *BalanceHistoryRepository
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginLocked(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.eventBus = events.NewTransactionalBus(u.eventPublisher)

	u.ledgerStateRepo = newLedgerStateRepository(tx)
	u.accountRepo = newAccountRepository(tx)
	u.ticketRepo = newTicketRepository(tx)
	u.jackpotRepo = newJackpotRepository(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepository(tx)

	return nil
}

// Commit commits the transaction, then flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if err := u.eventBus.Flush(u.ctx); err != nil {
		log.WithError(err).Warn("Some events were not delivered after commit")
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	u.tx = nil
	u.eventBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

func (u *unitOfWork) LedgerStateRepository() interfaces.LedgerStateRepository {
	u.mustBegin()
	return u.ledgerStateRepo
}

func (u *unitOfWork) AccountRepository() interfaces.AccountRepository {
	u.mustBegin()
	return u.accountRepo
}

func (u *unitOfWork) TicketRepository() interfaces.TicketRepository {
	u.mustBegin()
	return u.ticketRepo
}

func (u *unitOfWork) JackpotRepository() interfaces.JackpotRepository {
	u.mustBegin()
	return u.jackpotRepo
}

func (u *unitOfWork) BalanceHistoryRepository() interfaces.BalanceHistoryRepository {
	u.mustBegin()
	return u.balanceHistoryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	u.mustBegin()
	return u.eventBus
}

func (u *unitOfWork) mustBegin() {
	if u.eventBus == nil {
		panic("unit of work not started - call Begin() first")
	}
}
