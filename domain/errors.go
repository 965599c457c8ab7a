package domain

import "errors"

// Ledger error taxonomy. Every error aborts the current operation with no
// partial effects; callers match them with errors.Is.
var (
	ErrPermissionDenied    = errors.New("only the ledger owner can perform this action")
	ErrAlreadyInitialized  = errors.New("ledger already initialized")
	ErrNotInitialized      = errors.New("ledger not initialized")
	ErrConflict            = errors.New("the latest jackpot is still open")
	ErrNoOpenJackpot       = errors.New("there is no open jackpot")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidNumbers      = errors.New("invalid picked numbers")
	ErrNoFunds             = errors.New("nothing to withdraw")

	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidAccountID    = errors.New("invalid account id")
	ErrRoundImmutable      = errors.New("only the latest jackpot can be modified")
	ErrTicketPriceMismatch = errors.New("ticket price does not match jackpot")
)
