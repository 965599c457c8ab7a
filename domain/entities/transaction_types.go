package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	// Payment rail transactions
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeWithdraw TransactionType = "withdraw"

	// Lottery transactions
	TransactionTypeTicketPurchase TransactionType = "ticket_purchase"
	TransactionTypePrize          TransactionType = "prize"
)

// IsExternal returns true if the transaction moves funds across the payment rail
func (tt TransactionType) IsExternal() bool {
	return tt == TransactionTypeDeposit || tt == TransactionTypeWithdraw
}

// String returns the string representation of the transaction type
func (tt TransactionType) String() string {
	return string(tt)
}
