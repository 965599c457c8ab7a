package entities

import (
	"errors"
	"time"
)

// BalanceHistory is one journaled change of an account balance
type BalanceHistory struct {
	ID                  int64           `db:"id" json:"id"`
	AccountID           string          `db:"account_id" json:"accountId"`
	BalanceBefore       int64           `db:"balance_before" json:"balanceBefore"`
	BalanceAfter        int64           `db:"balance_after" json:"balanceAfter"`
	ChangeAmount        int64           `db:"change_amount" json:"changeAmount"`
	TransactionType     TransactionType `db:"transaction_type" json:"transactionType"`
	TransactionMetadata map[string]any  `db:"transaction_metadata" json:"transactionMetadata,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"createdTime"`
}

// ValidateTransaction performs basic validation on the entry
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.ChangeAmount == 0 {
		return errors.New("change amount cannot be zero")
	}

	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}

	if bh.BalanceAfter < 0 {
		return errors.New("balance cannot go negative")
	}

	return nil
}
