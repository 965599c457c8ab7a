package events

import "jackpot/domain/entities"

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange   EventType = "balance_change"
	EventTypeOwnerChanged    EventType = "owner_changed"
	EventTypeJackpotCreated  EventType = "jackpot_created"
	EventTypeTicketPurchased EventType = "ticket_purchased"
	EventTypeDrawCompleted   EventType = "draw_completed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	AccountID       string                   `json:"accountId"`
	OldBalance      int64                    `json:"oldBalance"`
	NewBalance      int64                    `json:"newBalance"`
	TransactionType entities.TransactionType `json:"transactionType"`
	ChangeAmount    int64                    `json:"changeAmount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// OwnerChangedEvent represents a transfer of ledger ownership
type OwnerChangedEvent struct {
	OldOwnerID string `json:"oldOwnerId"`
	NewOwnerID string `json:"newOwnerId"`
}

func (e OwnerChangedEvent) Type() EventType {
	return EventTypeOwnerChanged
}

// JackpotCreatedEvent represents a newly opened round
type JackpotCreatedEvent struct {
	JackpotID   int64 `json:"jackpotId"`
	TicketPrice int64 `json:"ticketPrice"`
	SeedAmount  int64 `json:"seedAmount"`
}

func (e JackpotCreatedEvent) Type() EventType {
	return EventTypeJackpotCreated
}

// TicketPurchasedEvent represents a ticket sold into a round
type TicketPurchasedEvent struct {
	TicketID      int64            `json:"ticketId"`
	AccountID     string           `json:"accountId"`
	JackpotID     int64            `json:"jackpotId"`
	PickedNumbers entities.Numbers `json:"pickedNumbers"`
	Price         int64            `json:"price"`
}

func (e TicketPurchasedEvent) Type() EventType {
	return EventTypeTicketPurchased
}

// DrawCompletedEvent represents one draw of a round, winning or not
type DrawCompletedEvent struct {
	JackpotID      int64            `json:"jackpotId"`
	DrawnNumbers   entities.Numbers `json:"drawnNumbers"`
	WinTicketIDs   []int64          `json:"winTicketIds"`
	PrizePerWinner int64            `json:"prizePerWinner"`
	Closed         bool             `json:"closed"`
	Forced         bool             `json:"forced"`
}

func (e DrawCompletedEvent) Type() EventType {
	return EventTypeDrawCompleted
}
