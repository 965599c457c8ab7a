package services

import (
	"context"
	"testing"
	"time"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/events"
	"jackpot/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJackpotManager_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	closedAt := testEpoch.Add(-time.Minute)
	closedRound := entities.NewJackpot(4, 1, 0, testEpoch.Add(-time.Hour))
	closedRound.EndTime = &closedAt

	tests := []struct {
		name    string
		latest  *entities.Jackpot
		price   int64
		seed    int64
		wantID  int64
		wantErr error
	}{
		{name: "first round", latest: nil, price: 1, seed: 0, wantID: 1},
		{name: "after closed round", latest: closedRound, price: 5, seed: 3, wantID: 5},
		{name: "open round conflicts", latest: entities.NewJackpot(2, 1, 0, testEpoch), price: 1, wantErr: domain.ErrConflict},
		{name: "zero price", price: 0, wantErr: domain.ErrInvalidAmount},
		{name: "negative seed", price: 1, seed: -1, wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := new(testhelpers.MockJackpotRepository)
			publisher := new(testhelpers.MockEventPublisher)
			manager := NewJackpotManager(repo, publisher, testhelpers.NewFakeClock(testEpoch))

			if tt.latest != nil {
				repo.On("GetLatest", ctx).Return(tt.latest, nil)
			} else {
				repo.On("GetLatest", ctx).Return(nil, nil)
			}
			repo.On("Count", ctx).Return(tt.wantID-1, nil)
			repo.On("Append", ctx, mock.AnythingOfType("*entities.Jackpot")).Return(nil)
			publisher.On("Publish", mock.AnythingOfType("events.JackpotCreatedEvent")).Return(nil)

			jackpot, err := manager.Create(ctx, tt.price, tt.seed)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				repo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, jackpot.ID)
			assert.Equal(t, tt.price, jackpot.TicketPrice)
			assert.Equal(t, tt.seed, jackpot.LockedAmount)
			assert.True(t, jackpot.StartTime.Equal(testEpoch))
			assert.True(t, jackpot.IsOpen(testEpoch))
			publisher.AssertCalled(t, "Publish", events.JackpotCreatedEvent{JackpotID: tt.wantID, TicketPrice: tt.price, SeedAmount: tt.seed})
		})
	}
}

func TestJackpotManager_AddTicket(t *testing.T) {
	t.Parallel()
	manager := NewJackpotManager(nil, nil, testhelpers.NewFakeClock(testEpoch))
	round := entities.NewJackpot(1, 4, 2, testEpoch)

	require.NoError(t, manager.AddTicket(round, 1, 4))
	assert.Equal(t, []int64{1}, round.TicketIDs)
	assert.Equal(t, int64(6), round.LockedAmount)

	err := manager.AddTicket(round, 2, 3)
	assert.ErrorIs(t, err, domain.ErrTicketPriceMismatch)
	assert.Equal(t, []int64{1}, round.TicketIDs)
	assert.Equal(t, int64(6), round.LockedAmount)
}

func TestJackpotManager_AddTicketRejectsOverflow(t *testing.T) {
	t.Parallel()
	manager := NewJackpotManager(nil, nil, testhelpers.NewFakeClock(testEpoch))
	round := entities.NewJackpot(1, 1<<62, 1<<62, testEpoch)

	err := manager.AddTicket(round, 1, 1<<62)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Empty(t, round.TicketIDs)
	assert.Equal(t, int64(1<<62), round.LockedAmount)
}

func TestJackpotManager_CloseIsIrreversible(t *testing.T) {
	t.Parallel()
	manager := NewJackpotManager(nil, nil, testhelpers.NewFakeClock(testEpoch))
	round := entities.NewJackpot(1, 1, 5, testEpoch)

	assert.Equal(t, int64(0), manager.DrainRemainder(round))
	assert.Equal(t, int64(5), round.LockedAmount)

	manager.Close(round, testEpoch.Add(time.Minute))
	manager.Close(round, testEpoch.Add(time.Hour))
	require.NotNil(t, round.EndTime)
	assert.True(t, round.EndTime.Equal(testEpoch.Add(time.Minute)))

	for _, now := range []time.Time{testEpoch, testEpoch.Add(time.Hour), testEpoch.Add(-time.Hour)} {
		assert.Equal(t, entities.JackpotStatusClosed, round.Status(now))
	}

	assert.Equal(t, int64(5), manager.DrainRemainder(round))
	assert.Equal(t, int64(0), round.LockedAmount)
}

func TestJackpotManager_SaveWrapsImmutableError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := new(testhelpers.MockJackpotRepository)
	manager := NewJackpotManager(repo, nil, testhelpers.NewFakeClock(testEpoch))
	round := entities.NewJackpot(1, 1, 0, testEpoch)

	repo.On("UpdateLatest", ctx, round).Return(domain.ErrRoundImmutable)

	err := manager.Save(ctx, round)
	assert.ErrorIs(t, err, domain.ErrRoundImmutable)
}

func TestJackpotManager_LatestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := new(testhelpers.MockJackpotRepository)
	manager := NewJackpotManager(repo, nil, testhelpers.NewFakeClock(testEpoch))

	repo.On("GetLatest", ctx).Return(nil, nil).Once()
	_, err := manager.LatestOpen(ctx)
	assert.ErrorIs(t, err, domain.ErrNoOpenJackpot)

	repo.On("GetLatest", ctx).Return(nil, assert.AnError).Once()
	_, err = manager.LatestOpen(ctx)
	assert.ErrorIs(t, err, assert.AnError)

	open := entities.NewJackpot(1, 1, 0, testEpoch)
	repo.On("GetLatest", ctx).Return(open, nil).Once()
	got, err := manager.LatestOpen(ctx)
	require.NoError(t, err)
	assert.Same(t, open, got)
}
