package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJackpotStatus(t *testing.T) {
	t.Parallel()
	start := time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	tests := []struct {
		name    string
		endTime *time.Time
		now     time.Time
		want    JackpotStatus
	}{
		{name: "open at start", now: start, want: JackpotStatusOpen},
		{name: "open after start", now: start.Add(24 * time.Hour), want: JackpotStatusOpen},
		{name: "not started", now: start.Add(-time.Second), want: JackpotStatusClosed},
		{name: "closed before end", endTime: &end, now: start, want: JackpotStatusClosed},
		{name: "closed after end", endTime: &end, now: end.Add(time.Hour), want: JackpotStatusClosed},
		{name: "closed long before start", endTime: &end, now: start.Add(-time.Hour), want: JackpotStatusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			j := NewJackpot(1, 1, 0, start)
			j.EndTime = tt.endTime
			assert.Equal(t, tt.want, j.Status(tt.now))
			assert.Equal(t, tt.want == JackpotStatusOpen, j.IsOpen(tt.now))
			assert.Equal(t, tt.endTime != nil, j.IsClosed())
		})
	}
}

func TestJackpotHelpers(t *testing.T) {
	t.Parallel()
	now := time.Now()
	j := NewJackpot(3, 2, 10, now)

	assert.Equal(t, int64(10), j.LockedAmount)
	assert.False(t, j.HasTicket(1))

	j.TicketIDs = append(j.TicketIDs, 1)
	assert.True(t, j.HasTicket(1))
}

func TestBalanceHistoryValidateTransaction(t *testing.T) {
	t.Parallel()
	valid := &BalanceHistory{BalanceBefore: 5, BalanceAfter: 2, ChangeAmount: -3}
	assert.NoError(t, valid.ValidateTransaction())

	assert.Error(t, (&BalanceHistory{BalanceBefore: 5, BalanceAfter: 5}).ValidateTransaction())
	assert.Error(t, (&BalanceHistory{BalanceBefore: 5, BalanceAfter: 3, ChangeAmount: -3}).ValidateTransaction())
	assert.Error(t, (&BalanceHistory{BalanceBefore: 1, BalanceAfter: -2, ChangeAmount: -3}).ValidateTransaction())
}
