package entities

import (
	"time"
)

// JackpotStatus is derived from a round's timestamps, never stored
type JackpotStatus string

const (
	JackpotStatusOpen   JackpotStatus = "Open"
	JackpotStatusClosed JackpotStatus = "Close"
)

// DrawingResult is one execution of the draw, winning or not
type DrawingResult struct {
	DrawnNumbers Numbers   `db:"drawn_numbers" json:"drawedNumbers"`
	CreatedAt    time.Time `db:"created_at" json:"createdTime"`
}

// Jackpot is one lottery round
type Jackpot struct {
	ID           int64           `db:"id" json:"id"`
	TicketPrice  int64           `db:"ticket_price" json:"ticketPrice"`
	LockedAmount int64           `db:"locked_amount" json:"lockedAmount"`
	TicketIDs    []int64         `db:"-" json:"ticketIds"`
	WinTicketIDs []int64         `db:"-" json:"winTicketIds"`
	DrawResults  []DrawingResult `db:"-" json:"drawedResults"`
	StartTime    time.Time       `db:"start_time" json:"startTime"`
	EndTime      *time.Time      `db:"end_time" json:"endTime"`
	CreatedAt    time.Time       `db:"created_at" json:"createdTime"`
}

// NewJackpot creates an open round starting at now
func NewJackpot(id, ticketPrice, seedAmount int64, now time.Time) *Jackpot {
	return &Jackpot{
		ID:           id,
		TicketPrice:  ticketPrice,
		LockedAmount: seedAmount,
		TicketIDs:    []int64{},
		WinTicketIDs: []int64{},
		DrawResults:  []DrawingResult{},
		StartTime:    now,
		CreatedAt:    now,
	}
}

// Status derives the round status at the given time. A round with an end
// time is closed for every value of now.
func (j *Jackpot) Status(now time.Time) JackpotStatus {
	if j.EndTime == nil && !j.StartTime.After(now) {
		return JackpotStatusOpen
	}
	return JackpotStatusClosed
}

// IsOpen returns true if tickets can be bought and draws run at now
func (j *Jackpot) IsOpen(now time.Time) bool {
	return j.Status(now) == JackpotStatusOpen
}

// IsClosed returns true once the round has an end time
func (j *Jackpot) IsClosed() bool {
	return j.EndTime != nil
}

// HasTicket checks membership of a ticket id in the round
func (j *Jackpot) HasTicket(ticketID int64) bool {
	for _, id := range j.TicketIDs {
		if id == ticketID {
			return true
		}
	}
	return false
}
