package kv

import (
	"context"
	"fmt"

	"jackpot/domain/interfaces"
	"jackpot/events"
	"jackpot/storage"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"
)

// DefaultTicketCacheSize is used when no cache size is configured
const DefaultTicketCacheSize = 4096

// UnitOfWorkFactory creates units of work over one embedded store
type UnitOfWorkFactory struct {
	store          *storage.Store
	eventPublisher interfaces.EventPublisher
	ticketCache    *lru.Cache
}

// NewUnitOfWorkFactory creates a factory. Committed events are delivered to
// eventPublisher.
func NewUnitOfWorkFactory(store *storage.Store, eventPublisher interfaces.EventPublisher, ticketCacheSize int) (*UnitOfWorkFactory, error) {
	if eventPublisher == nil {
		eventPublisher = events.NewBus()
	}
	if ticketCacheSize <= 0 {
		ticketCacheSize = DefaultTicketCacheSize
	}
	cache, err := lru.New(ticketCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticket cache: %w", err)
	}
	return &UnitOfWorkFactory{
		store:          store,
		eventPublisher: eventPublisher,
		ticketCache:    cache,
	}, nil
}

// Create returns a unit of work that must be started with Begin
func (f *UnitOfWorkFactory) Create() interfaces.UnitOfWork {
	return &unitOfWork{
		store:          f.store,
		eventPublisher: f.eventPublisher,
		ticketCache:    f.ticketCache,
	}
}

// unitOfWork holds the store's exclusive transaction from Begin until
// Commit or Rollback
type unitOfWork struct {
	store          *storage.Store
	eventPublisher interfaces.EventPublisher
	ticketCache    *lru.Cache

	ctx                context.Context
	tx                 *storage.Tx
	eventBus           interfaces.TransactionalEventPublisher
	ledgerStateRepo    *ledgerStateRepository
	accountRepo        *accountRepository
	ticketRepo         *ticketRepository
	jackpotRepo        *jackpotRepository
	balanceHistoryRepo *balanceHistoryRepository
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx
	u.eventBus = events.NewTransactionalBus(u.eventPublisher)
	u.ledgerStateRepo = newLedgerStateRepository(tx)
	u.accountRepo = newAccountRepository(tx)
	u.ticketRepo = newTicketRepository(tx, u.ticketCache)
	u.jackpotRepo = newJackpotRepository(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepository(tx)
	return nil
}

// Commit applies staged writes, then flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	u.ticketRepo.publishCreated()
	if err := u.eventBus.Flush(u.ctx); err != nil {
		log.WithError(err).Warn("Some events were not delivered after commit")
	}
	return nil
}

// Rollback discards staged writes and pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	u.tx.Discard()
	u.tx = nil
	u.eventBus.Discard()
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

func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	u.mustBegin()
	return u.eventBus
}

func (u *unitOfWork) mustBegin() {
	if u.eventBus == nil {
		panic("unit of work not started - call Begin() first")
	}
}
