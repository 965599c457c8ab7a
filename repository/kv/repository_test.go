package kv

import (
	"context"
	"testing"
	"time"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/events"
	"jackpot/domain/interfaces"
	"jackpot/domain/testhelpers"
	"jackpot/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

func newTestFactory(t *testing.T, publisher interfaces.EventPublisher) *UnitOfWorkFactory {
	t.Helper()
	store, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	factory, err := NewUnitOfWorkFactory(store, publisher, 8)
	require.NoError(t, err)
	return factory
}

func begin(t *testing.T, factory *UnitOfWorkFactory) interfaces.UnitOfWork {
	t.Helper()
	uow := factory.Create()
	require.NoError(t, uow.Begin(context.Background()))
	return uow
}

func TestUnitOfWork_CommitPersistsAndRollbackDiscards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	require.NoError(t, uow.AccountRepository().Save(ctx, &entities.Account{ID: "alice", Balance: 5, TicketIDs: []int64{}}))
	require.NoError(t, uow.Commit())

	uow = begin(t, factory)
	require.NoError(t, uow.AccountRepository().Save(ctx, &entities.Account{ID: "alice", Balance: 99}))
	require.NoError(t, uow.AccountRepository().Save(ctx, &entities.Account{ID: "bob", Balance: 1}))
	require.NoError(t, uow.Rollback())

	uow = begin(t, factory)
	defer uow.Rollback()
	alice, err := uow.AccountRepository().GetByID(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, int64(5), alice.Balance)

	bob, err := uow.AccountRepository().GetByID(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, bob)

	all, err := uow.AccountRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUnitOfWork_EventsFlushOnlyAfterCommit(t *testing.T) {
	t.Parallel()
	publisher := new(testhelpers.MockEventPublisher)
	committed := events.OwnerChangedEvent{OldOwnerID: "a", NewOwnerID: "b"}
	rolledBack := events.OwnerChangedEvent{OldOwnerID: "b", NewOwnerID: "c"}
	publisher.On("Publish", committed).Return(nil).Once()

	factory := newTestFactory(t, publisher)

	uow := begin(t, factory)
	require.NoError(t, uow.EventBus().Publish(rolledBack))
	require.NoError(t, uow.Rollback())

	uow = begin(t, factory)
	require.NoError(t, uow.EventBus().Publish(committed))
	publisher.AssertNotCalled(t, "Publish", committed)
	require.NoError(t, uow.Commit())

	publisher.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Publish", rolledBack)
}

func TestUnitOfWork_RollbackAfterCommitIsNoop(t *testing.T) {
	t.Parallel()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	require.NoError(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
	assert.Error(t, uow.Commit())

	// The store is released for the next unit of work
	next := begin(t, factory)
	require.NoError(t, next.Rollback())
}

func TestUnitOfWork_BeginTwiceFails(t *testing.T) {
	t.Parallel()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	defer uow.Rollback()
	assert.Error(t, uow.Begin(context.Background()))
}

func TestJackpotRepository_OnlyLatestIsMutable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	defer uow.Rollback()
	repo := uow.JackpotRepository()

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := entities.NewJackpot(1, 1, 0, testNow)
	require.NoError(t, repo.Append(ctx, first))
	assert.Error(t, repo.Append(ctx, entities.NewJackpot(3, 1, 0, testNow)))

	first.LockedAmount = 9
	require.NoError(t, repo.UpdateLatest(ctx, first))

	second := entities.NewJackpot(2, 1, 0, testNow)
	require.NoError(t, repo.Append(ctx, second))

	first.LockedAmount = 100
	err = repo.UpdateLatest(ctx, first)
	assert.ErrorIs(t, err, domain.ErrRoundImmutable)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, int64(9), all[0].LockedAmount)
	assert.Equal(t, int64(2), all[1].ID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTicketRepository_SequentialIDsAndCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	factory := newTestFactory(t, nil)
	numbers := entities.Numbers{1, 2, 3, 4, 5, 6}

	uow := begin(t, factory)
	repo := uow.TicketRepository()
	assert.Error(t, repo.Create(ctx, &entities.Ticket{ID: 2, AccountID: "alice", JackpotID: 1, PickedNumbers: numbers}))
	require.NoError(t, repo.Create(ctx, &entities.Ticket{ID: 1, AccountID: "alice", JackpotID: 1, PickedNumbers: numbers}))
	got, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, uow.Rollback())

	// A rolled back ticket must neither persist nor linger in the cache
	assert.Equal(t, 0, factory.ticketCache.Len())
	uow = begin(t, factory)
	repo = uow.TicketRepository()
	missing, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Create(ctx, &entities.Ticket{ID: 1, AccountID: "bob", JackpotID: 1, PickedNumbers: numbers}))
	require.NoError(t, uow.Commit())
	assert.Equal(t, 1, factory.ticketCache.Len())

	uow = begin(t, factory)
	defer uow.Rollback()
	repo = uow.TicketRepository()
	tickets, err := repo.GetByIDs(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "bob", tickets[0].AccountID)
	assert.Equal(t, numbers, tickets[0].PickedNumbers)

	_, err = repo.GetByIDs(ctx, []int64{1, 2})
	assert.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestBalanceHistoryRepository_NewestFirstPerAccount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	defer uow.Rollback()
	repo := uow.BalanceHistoryRepository()

	balance := map[string]int64{}
	for i, id := range []string{"alice", "bob", "alice", "alice", "bob"} {
		change := int64(i + 1)
		h := &entities.BalanceHistory{
			AccountID:       id,
			BalanceBefore:   balance[id],
			BalanceAfter:    balance[id] + change,
			ChangeAmount:    change,
			TransactionType: entities.TransactionTypeDeposit,
			CreatedAt:       testNow,
		}
		balance[id] += change
		require.NoError(t, repo.Record(ctx, h))
		assert.Equal(t, int64(i+1), h.ID)
	}

	alice, err := repo.GetByAccount(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, int64(4), alice[0].ID)
	assert.Equal(t, int64(3), alice[1].ID)

	bob, err := repo.GetByAccount(ctx, "bob", 10)
	require.NoError(t, err)
	require.Len(t, bob, 2)
	assert.Equal(t, int64(5), bob[0].ID)

	nobody, err := repo.GetByAccount(ctx, "carol", 10)
	require.NoError(t, err)
	assert.Empty(t, nobody)
}

func TestLedgerStateRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	factory := newTestFactory(t, nil)

	uow := begin(t, factory)
	defer uow.Rollback()
	repo := uow.LedgerStateRepository()

	state, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, repo.Save(ctx, &entities.LedgerState{OwnerID: "owner", CreatedAt: testNow, UpdatedAt: testNow}))
	state, err = repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, "owner", state.OwnerID)
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	t.Parallel()
	factory := newTestFactory(t, new(testhelpers.MockEventPublisher))
	uow := factory.Create()

	assert.Panics(t, func() { uow.AccountRepository() })
	assert.Panics(t, func() { uow.EventBus() })
}
