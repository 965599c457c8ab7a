package testutil

import (
	"time"

	"jackpot/domain/entities"
)

// TestTime is a fixed, second-aligned timestamp that survives a round trip
// through TIMESTAMPTZ unchanged
var TestTime = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

// CreateTestAccount creates an account with a balance
func CreateTestAccount(accountID string, balance int64) *entities.Account {
	account := entities.NewAccount(accountID, TestTime)
	account.Balance = balance
	return account
}

// CreateTestJackpot creates an open round with the given id
func CreateTestJackpot(id, ticketPrice, seedAmount int64) *entities.Jackpot {
	return entities.NewJackpot(id, ticketPrice, seedAmount, TestTime)
}

// CreateTestTicket creates a ticket picking 1..6
func CreateTestTicket(id int64, accountID string, jackpotID int64) *entities.Ticket {
	return &entities.Ticket{
		ID:            id,
		AccountID:     accountID,
		JackpotID:     jackpotID,
		PickedNumbers: entities.Numbers{1, 2, 3, 4, 5, 6},
		CreatedAt:     TestTime,
	}
}

// CreateTestBalanceHistory creates a deposit entry with specific amounts
func CreateTestBalanceHistory(accountID string, before, change int64) *entities.BalanceHistory {
	return &entities.BalanceHistory{
		AccountID:       accountID,
		BalanceBefore:   before,
		BalanceAfter:    before + change,
		ChangeAmount:    change,
		TransactionType: entities.TransactionTypeDeposit,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: TestTime,
	}
}
