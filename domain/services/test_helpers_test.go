package services

import (
	"context"
	"testing"
	"time"

	"jackpot/domain/interfaces"
	"jackpot/domain/testhelpers"
	"jackpot/repository/kv"
	"jackpot/storage"

	"github.com/stretchr/testify/require"
)

const (
	TestOwnerID      = "owner"
	TestAccountA     = "alice"
	TestAccountB     = "bob"
	TestAccountC     = "carol"
	TestDefaultPrice = int64(1)
)

var testEpoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// testLedger wires a coordinator over an in-memory store
type testLedger struct {
	coordinator *LotteryCoordinator
	clock       *testhelpers.FakeClock
	factory     interfaces.UnitOfWorkFactory
}

func newTestLedger(t *testing.T, random interfaces.RandomSource) *testLedger {
	t.Helper()

	store, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	factory, err := kv.NewUnitOfWorkFactory(store, nil, 64)
	require.NoError(t, err)

	clock := testhelpers.NewFakeClock(testEpoch)
	coordinator := NewLotteryCoordinator(factory, random, clock, nil, TestDefaultPrice)
	require.NoError(t, coordinator.Initialize(context.Background(), TestOwnerID))

	return &testLedger{
		coordinator: coordinator,
		clock:       clock,
		factory:     factory,
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}

// totalHoldings is the conservation quantity: every account balance plus
// every round's locked amount
func (l *testLedger) totalHoldings(t *testing.T, accounts ...string) int64 {
	t.Helper()
	ctx := context.Background()

	var total int64
	for _, id := range accounts {
		balance, err := l.coordinator.GetAccountBalance(ctx, id)
		require.NoError(t, err)
		total += balance
	}
	rounds, err := l.coordinator.GetAllRounds(ctx)
	require.NoError(t, err)
	for _, r := range rounds {
		total += r.LockedAmount
	}
	return total
}

func freshFactory(t *testing.T) interfaces.UnitOfWorkFactory {
	t.Helper()
	store, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	factory, err := kv.NewUnitOfWorkFactory(store, nil, 0)
	require.NoError(t, err)
	return factory
}
