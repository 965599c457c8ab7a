package services

import (
	"context"
	"testing"
	"time"

	"jackpot/domain/entities"
	"jackpot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDrawEngine_DrawNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		values  []uint64
		want    entities.Numbers
		wantErr bool
	}{
		{
			name:   "sorted output",
			values: []uint64{55, 1, 30, 2, 29, 3},
			want:   entities.Numbers{1, 2, 3, 29, 30, 55},
		},
		{
			name:   "repeats are discarded",
			values: []uint64{5, 5, 5, 4, 3, 3, 2, 1, 6},
			want:   entities.Numbers{1, 2, 3, 4, 5, 6},
		},
		{
			name:    "out of range value",
			values:  []uint64{0},
			wantErr: true,
		},
		{
			name:    "source error",
			values:  []uint64{1, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			clock := testhelpers.NewFakeClock(testEpoch)
			engine := NewDrawEngine(testhelpers.NewScriptedRandomSource(tt.values...), nil, nil, clock)

			got, err := engine.DrawNumbers()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// stuckRandomSource always returns the same value
type stuckRandomSource struct{}

func (stuckRandomSource) NextUint(uint64) (uint64, error) { return 7, nil }

func TestDrawEngine_DrawNumbersGivesUpOnDegenerateSource(t *testing.T) {
	t.Parallel()
	engine := NewDrawEngine(stuckRandomSource{}, nil, nil, testhelpers.NewFakeClock(testEpoch))

	_, err := engine.DrawNumbers()
	assert.Error(t, err)
}

func TestDrawEngine_DrawNumbersWithSeededSourceIsValid(t *testing.T) {
	t.Parallel()
	engine := NewDrawEngine(NewSeededRandomSource(99), nil, nil, testhelpers.NewFakeClock(testEpoch))

	for i := 0; i < 500; i++ {
		drawn, err := engine.DrawNumbers()
		require.NoError(t, err)
		for j, v := range drawn {
			assert.GreaterOrEqual(t, v, 1)
			assert.LessOrEqual(t, v, entities.MaxNumber)
			if j > 0 {
				assert.Less(t, drawn[j-1], v)
			}
		}
	}
}

func TestDrawEngine_Matches(t *testing.T) {
	t.Parallel()
	engine := NewDrawEngine(nil, nil, nil, nil)
	ticket := entities.Numbers{4, 8, 15, 16, 23, 42}

	assert.True(t, engine.Matches(ticket, entities.Numbers{4, 8, 15, 16, 23, 42}))
	assert.False(t, engine.Matches(ticket, entities.Numbers{4, 8, 15, 16, 23, 43}))
}

func TestDrawEngine_PickForcedTicket(t *testing.T) {
	t.Parallel()
	round := entities.NewJackpot(1, 1, 0, testEpoch)
	engine := NewDrawEngine(testhelpers.NewScriptedRandomSource(2), nil, nil, testhelpers.NewFakeClock(testEpoch))

	picked, err := engine.PickForcedTicket(round)
	require.NoError(t, err)
	assert.Nil(t, picked)

	round.TicketIDs = []int64{10, 11, 12}
	picked, err = engine.PickForcedTicket(round)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, int64(11), *picked)
}

func TestDrawEngine_SettleRejectsForeignForcedTicket(t *testing.T) {
	t.Parallel()
	clock := testhelpers.NewFakeClock(testEpoch)
	jackpots := NewJackpotManager(new(testhelpers.MockJackpotRepository), new(testhelpers.MockEventPublisher), clock)
	engine := NewDrawEngine(nil, jackpots, nil, clock)

	round := entities.NewJackpot(1, 1, 0, testEpoch)
	foreign := &entities.Ticket{ID: 9, JackpotID: 2, PickedNumbers: entities.Numbers{1, 2, 3, 4, 5, 6}}

	_, err := engine.Settle(context.Background(), round, []*entities.Ticket{foreign}, int64Ptr(9))
	assert.Error(t, err)
	assert.Empty(t, round.DrawResults)
}

func TestDrawEngine_SettleCreditsWinnersAndKeepsRemainder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock := testhelpers.NewFakeClock(testEpoch)

	accountRepo := new(testhelpers.MockAccountRepository)
	historyRepo := new(testhelpers.MockBalanceHistoryRepository)
	publisher := new(testhelpers.MockEventPublisher)
	accounts := NewAccountLedger(accountRepo, historyRepo, publisher, clock)
	jackpots := NewJackpotManager(new(testhelpers.MockJackpotRepository), publisher, clock)
	engine := NewDrawEngine(nil, jackpots, accounts, clock)

	winning := entities.Numbers{3, 9, 17, 21, 40, 52}
	round := entities.NewJackpot(1, 2, 1, testEpoch.Add(-time.Hour))
	round.TicketIDs = []int64{1, 2, 3}
	round.LockedAmount = 7
	tickets := []*entities.Ticket{
		{ID: 1, AccountID: TestAccountA, JackpotID: 1, PickedNumbers: winning},
		{ID: 2, AccountID: TestAccountB, JackpotID: 1, PickedNumbers: entities.Numbers{1, 2, 3, 4, 5, 6}},
		{ID: 3, AccountID: TestAccountB, JackpotID: 1, PickedNumbers: winning},
	}

	accountRepo.On("GetByID", ctx, TestAccountA).Return(&entities.Account{ID: TestAccountA, Balance: 0}, nil)
	accountRepo.On("GetByID", ctx, TestAccountB).Return(&entities.Account{ID: TestAccountB, Balance: 4}, nil)
	accountRepo.On("Save", ctx, mock.MatchedBy(func(a *entities.Account) bool {
		return (a.ID == TestAccountA && a.Balance == 3) || (a.ID == TestAccountB && a.Balance == 7)
	})).Return(nil).Twice()
	historyRepo.On("Record", ctx, mock.Anything).Return(nil).Twice()
	publisher.On("Publish", mock.Anything).Return(nil)

	outcome, err := engine.Settle(ctx, round, tickets, int64Ptr(1))
	require.NoError(t, err)

	assert.True(t, outcome.Closed)
	assert.True(t, outcome.Forced)
	assert.Equal(t, winning, outcome.DrawnNumbers)
	assert.Equal(t, []int64{1, 3}, outcome.WinTicketIDs)
	assert.Equal(t, int64(3), outcome.PrizePerWinner)
	assert.Equal(t, int64(1), outcome.Remainder)

	assert.Equal(t, []int64{1, 3}, round.WinTicketIDs)
	assert.Equal(t, int64(1), round.LockedAmount)
	require.NotNil(t, round.EndTime)
	assert.True(t, round.EndTime.Equal(testEpoch))
	assert.Len(t, round.DrawResults, 1)

	accountRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}
