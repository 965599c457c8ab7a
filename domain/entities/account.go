package entities

import "time"

// Account holds a player's spendable balance and the tickets they own
type Account struct {
	ID        string    `db:"account_id" json:"accountId"`
	Balance   int64     `db:"balance" json:"balance"`
	TicketIDs []int64   `db:"-" json:"ticketIds"`
	CreatedAt time.Time `db:"created_at" json:"createdTime"`
}

// NewAccount returns a zero-balance account created at the given time
func NewAccount(id string, now time.Time) *Account {
	return &Account{
		ID:        id,
		TicketIDs: []int64{},
		CreatedAt: now,
	}
}

// HasSufficientBalance checks if the balance covers the amount
func (a *Account) HasSufficientBalance(amount int64) bool {
	return a.Balance >= amount
}

// AddTicket appends an owned ticket id
func (a *Account) AddTicket(ticketID int64) {
	a.TicketIDs = append(a.TicketIDs, ticketID)
}
