package services

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/interfaces"
	"jackpot/domain/utils"
)

// MaxAccountIDLength bounds account identifiers accepted by the ledger
const MaxAccountIDLength = 64

// AccountLedger owns per-account balance and ticket bookkeeping
type AccountLedger struct {
	accountRepo        interfaces.AccountRepository
	balanceHistoryRepo interfaces.BalanceHistoryRepository
	eventPublisher     interfaces.EventPublisher
	clock              interfaces.Clock
}

// NewAccountLedger creates a new account ledger
func NewAccountLedger(
	accountRepo interfaces.AccountRepository,
	balanceHistoryRepo interfaces.BalanceHistoryRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) *AccountLedger {
	return &AccountLedger{
		accountRepo:        accountRepo,
		balanceHistoryRepo: balanceHistoryRepo,
		eventPublisher:     eventPublisher,
		clock:              clock,
	}
}

// ValidateAccountID rejects empty, padded, oversized or non-printable identifiers
func ValidateAccountID(accountID string) error {
	if accountID == "" || strings.TrimSpace(accountID) != accountID || len(accountID) > MaxAccountIDLength ||
		strings.IndexFunc(accountID, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q", domain.ErrInvalidAccountID, accountID)
	}
	return nil
}

// Get returns a persisted account, or nil if it does not exist
func (l *AccountLedger) Get(ctx context.Context, accountID string) (*entities.Account, error) {
	account, err := l.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetOrCreate returns the existing account or a new zero-balance one.
// A new account is only persisted by the first mutation applied to it.
func (l *AccountLedger) GetOrCreate(ctx context.Context, accountID string) (*entities.Account, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return nil, err
	}

	account, err := l.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = entities.NewAccount(accountID, l.clock.Now())
	}
	return account, nil
}

// Deposit adds a positive amount received from the payment rail
func (l *AccountLedger) Deposit(ctx context.Context, accountID string, amount int64) (*entities.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}

	account, err := l.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := l.Credit(ctx, account, amount, entities.TransactionTypeDeposit, nil); err != nil {
		return nil, err
	}
	return account, nil
}

// Withdraw zeroes the balance and returns the amount to pay out
func (l *AccountLedger) Withdraw(ctx context.Context, accountID string) (int64, error) {
	account, err := l.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account == nil || account.Balance == 0 {
		return 0, domain.ErrNoFunds
	}

	amount := account.Balance
	if err := l.applyChange(ctx, account, -amount, entities.TransactionTypeWithdraw, nil); err != nil {
		return 0, err
	}
	return amount, nil
}

// Debit removes amount from the account, refusing any overdraft
func (l *AccountLedger) Debit(ctx context.Context, account *entities.Account, amount int64, transactionType entities.TransactionType, metadata map[string]any) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}
	if !account.HasSufficientBalance(amount) {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, account.Balance, amount)
	}
	return l.applyChange(ctx, account, -amount, transactionType, metadata)
}

// Credit adds amount to the account
func (l *AccountLedger) Credit(ctx context.Context, account *entities.Account, amount int64, transactionType entities.TransactionType, metadata map[string]any) error {
	if amount <= 0 {
		return fmt.Errorf("%w: got %d", domain.ErrInvalidAmount, amount)
	}
	return l.applyChange(ctx, account, amount, transactionType, metadata)
}

// History returns the newest balance changes of an account first
func (l *AccountLedger) History(ctx context.Context, accountID string, limit int) ([]*entities.BalanceHistory, error) {
	history, err := l.balanceHistoryRepo.GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}

func (l *AccountLedger) applyChange(ctx context.Context, account *entities.Account, change int64, transactionType entities.TransactionType, metadata map[string]any) error {
	before := account.Balance
	after, err := domain.AddAmounts(before, change)
	if err != nil {
		return err
	}
	if after < 0 {
		return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, before, -change)
	}

	account.Balance = after
	if err := l.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	history := &entities.BalanceHistory{
		AccountID:           account.ID,
		BalanceBefore:       before,
		BalanceAfter:        after,
		ChangeAmount:        change,
		TransactionType:     transactionType,
		TransactionMetadata: metadata,
		CreatedAt:           l.clock.Now(),
	}
	if err := utils.RecordBalanceChange(ctx, l.balanceHistoryRepo, l.eventPublisher, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}
	return nil
}
