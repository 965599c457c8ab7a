package services

import (
	"context"
	"fmt"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/events"
	"jackpot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// DefaultHistoryLimit is used when a history query does not set a limit
const DefaultHistoryLimit = 50

// RoundInfo is a round together with its status at query time
type RoundInfo struct {
	*entities.Jackpot
	Status entities.JackpotStatus `json:"status"`
}

// DrawOutcome is the result of DrawRound
type DrawOutcome struct {
	*SettlementOutcome
	JackpotID   int64             `json:"jackpotId"`
	NextJackpot *entities.Jackpot `json:"nextJackpot,omitempty"`
	CarriedOver int64             `json:"carriedOver"`
}

// LotteryCoordinator is the entry point of every ledger operation. Each
// public method runs as one unit of work: all preconditions are checked
// before any mutation and any failure leaves the ledger untouched.
type LotteryCoordinator struct {
	uowFactory         interfaces.UnitOfWorkFactory
	random             interfaces.RandomSource
	clock              interfaces.Clock
	metrics            interfaces.LedgerMetrics
	defaultTicketPrice int64
}

// NewLotteryCoordinator creates a new coordinator
func NewLotteryCoordinator(
	uowFactory interfaces.UnitOfWorkFactory,
	random interfaces.RandomSource,
	clock interfaces.Clock,
	metrics interfaces.LedgerMetrics,
	defaultTicketPrice int64,
) *LotteryCoordinator {
	if metrics == nil {
		metrics = NoopLedgerMetrics{}
	}
	return &LotteryCoordinator{
		uowFactory:         uowFactory,
		random:             random,
		clock:              clock,
		metrics:            metrics,
		defaultTicketPrice: defaultTicketPrice,
	}
}

// ledger binds the components to one unit of work
type ledger struct {
	state    interfaces.LedgerStateRepository
	accounts *AccountLedger
	tickets  *TicketRegistry
	jackpots *JackpotManager
	draws    *DrawEngine
	events   interfaces.EventPublisher
}

func (c *LotteryCoordinator) bind(uow interfaces.UnitOfWork) *ledger {
	accounts := NewAccountLedger(uow.AccountRepository(), uow.BalanceHistoryRepository(), uow.EventBus(), c.clock)
	jackpots := NewJackpotManager(uow.JackpotRepository(), uow.EventBus(), c.clock)
	return &ledger{
		state:    uow.LedgerStateRepository(),
		accounts: accounts,
		tickets:  NewTicketRegistry(uow.TicketRepository(), c.clock),
		jackpots: jackpots,
		draws:    NewDrawEngine(c.random, jackpots, accounts, c.clock),
		events:   uow.EventBus(),
	}
}

// withUnitOfWork runs fn in a new unit of work and commits only if fn succeeds
func (c *LotteryCoordinator) withUnitOfWork(ctx context.Context, operation string, fn func(l *ledger) error) (err error) {
	defer func() {
		c.metrics.RecordOperation(operation, err)
	}()

	uow := c.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err = fn(c.bind(uow)); err != nil {
		return err
	}

	if err = uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// query runs fn in a unit of work that is always rolled back
func (c *LotteryCoordinator) query(ctx context.Context, fn func(l *ledger) error) error {
	uow := c.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return fn(c.bind(uow))
}

func (l *ledger) requireInitialized(ctx context.Context) (*entities.LedgerState, error) {
	state, err := l.state.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger state: %w", err)
	}
	if state == nil {
		return nil, domain.ErrNotInitialized
	}
	return state, nil
}

func (l *ledger) requireOwner(ctx context.Context, caller string) (*entities.LedgerState, error) {
	state, err := l.requireInitialized(ctx)
	if err != nil {
		return nil, err
	}
	if !state.IsOwner(caller) {
		return nil, domain.ErrPermissionDenied
	}
	return state, nil
}

// Initialize records the ledger owner. It can only succeed once.
func (c *LotteryCoordinator) Initialize(ctx context.Context, ownerID string) error {
	return c.withUnitOfWork(ctx, "initialize", func(l *ledger) error {
		if err := ValidateAccountID(ownerID); err != nil {
			return err
		}

		existing, err := l.state.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to get ledger state: %w", err)
		}
		if existing != nil {
			return domain.ErrAlreadyInitialized
		}

		now := c.clock.Now()
		state := &entities.LedgerState{
			OwnerID:   ownerID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := l.state.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save ledger state: %w", err)
		}

		log.WithField("ownerID", ownerID).Info("Ledger initialized")
		return nil
	})
}

// GetOwnerID returns the current owner
func (c *LotteryCoordinator) GetOwnerID(ctx context.Context) (string, error) {
	var ownerID string
	err := c.query(ctx, func(l *ledger) error {
		state, err := l.requireInitialized(ctx)
		if err != nil {
			return err
		}
		ownerID = state.OwnerID
		return nil
	})
	return ownerID, err
}

// SetOwnerID transfers ownership. Only the current owner may call it.
func (c *LotteryCoordinator) SetOwnerID(ctx context.Context, caller, newOwnerID string) error {
	return c.withUnitOfWork(ctx, "set_owner", func(l *ledger) error {
		state, err := l.requireOwner(ctx, caller)
		if err != nil {
			return err
		}
		if err := ValidateAccountID(newOwnerID); err != nil {
			return err
		}

		oldOwnerID := state.OwnerID
		state.OwnerID = newOwnerID
		state.UpdatedAt = c.clock.Now()
		if err := l.state.Save(ctx, state); err != nil {
			return fmt.Errorf("failed to save ledger state: %w", err)
		}

		if err := l.events.Publish(events.OwnerChangedEvent{
			OldOwnerID: oldOwnerID,
			NewOwnerID: newOwnerID,
		}); err != nil {
			log.WithError(err).Error("Failed to publish owner changed event")
		}

		log.WithFields(log.Fields{
			"oldOwnerID": oldOwnerID,
			"newOwnerID": newOwnerID,
		}).Info("Ledger owner changed")
		return nil
	})
}

// Deposit credits the caller with the amount attached by the payment rail
func (c *LotteryCoordinator) Deposit(ctx context.Context, caller string, amount int64) (*entities.Account, error) {
	var account *entities.Account
	err := c.withUnitOfWork(ctx, "deposit", func(l *ledger) error {
		if _, err := l.requireInitialized(ctx); err != nil {
			return err
		}

		var err error
		account, err = l.accounts.Deposit(ctx, caller, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordBalanceTransaction(entities.TransactionTypeDeposit, amount)
	return account, nil
}

// Withdraw empties the caller's balance and returns the amount to transfer out
func (c *LotteryCoordinator) Withdraw(ctx context.Context, caller string) (int64, error) {
	var amount int64
	err := c.withUnitOfWork(ctx, "withdraw", func(l *ledger) error {
		if _, err := l.requireInitialized(ctx); err != nil {
			return err
		}

		var err error
		amount, err = l.accounts.Withdraw(ctx, caller)
		return err
	})
	if err != nil {
		return 0, err
	}

	c.metrics.RecordBalanceTransaction(entities.TransactionTypeWithdraw, amount)
	return amount, nil
}

// CreateRound opens a new round seeded with seedAmount. A nil ticketPrice
// uses the default price.
func (c *LotteryCoordinator) CreateRound(ctx context.Context, caller string, ticketPrice *int64, seedAmount int64) (*entities.Jackpot, error) {
	price := c.defaultTicketPrice
	if ticketPrice != nil {
		price = *ticketPrice
	}

	var jackpot *entities.Jackpot
	err := c.withUnitOfWork(ctx, "create_round", func(l *ledger) error {
		if _, err := l.requireOwner(ctx, caller); err != nil {
			return err
		}

		var err error
		jackpot, err = l.jackpots.Create(ctx, price, seedAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jackpot, nil
}

// BuyTicket sells one ticket of the latest open round to the caller
func (c *LotteryCoordinator) BuyTicket(ctx context.Context, caller string, numbers []int) (*entities.Ticket, error) {
	var ticket *entities.Ticket
	var price int64
	err := c.withUnitOfWork(ctx, "buy_ticket", func(l *ledger) error {
		if _, err := l.requireInitialized(ctx); err != nil {
			return err
		}

		round, err := l.jackpots.LatestOpen(ctx)
		if err != nil {
			return err
		}
		price = round.TicketPrice

		account, err := l.accounts.GetOrCreate(ctx, caller)
		if err != nil {
			return err
		}
		if !account.HasSufficientBalance(price) {
			return fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientBalance, account.Balance, price)
		}

		picked, err := l.tickets.ValidateAndCanonicalize(numbers)
		if err != nil {
			return err
		}

		ticket, err = l.tickets.Create(ctx, caller, round.ID, picked)
		if err != nil {
			return err
		}

		if err := l.jackpots.AddTicket(round, ticket.ID, price); err != nil {
			return err
		}

		// Ticket ownership is persisted together with the debit
		account.AddTicket(ticket.ID)
		metadata := map[string]any{
			"jackpot_id":     round.ID,
			"ticket_id":      ticket.ID,
			"picked_numbers": picked.String(),
		}
		if err := l.accounts.Debit(ctx, account, price, entities.TransactionTypeTicketPurchase, metadata); err != nil {
			return err
		}

		if err := l.jackpots.Save(ctx, round); err != nil {
			return err
		}

		if err := l.events.Publish(events.TicketPurchasedEvent{
			TicketID:      ticket.ID,
			AccountID:     caller,
			JackpotID:     round.ID,
			PickedNumbers: picked,
			Price:         price,
		}); err != nil {
			log.WithError(err).Error("Failed to publish ticket purchased event")
		}

		log.WithFields(log.Fields{
			"ticketID":  ticket.ID,
			"accountID": caller,
			"jackpotID": round.ID,
			"numbers":   picked.String(),
		}).Debug("Ticket purchased")
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordTicketSold(price)
	c.metrics.RecordBalanceTransaction(entities.TransactionTypeTicketPurchase, price)
	return ticket, nil
}

// DrawRound draws the latest open round. With forceWin the numbers of a
// randomly picked ticket of the round are drawn; a round without tickets
// falls back to a normal draw. When the draw closes the round, the next
// round opens at the default price, seeded with the undistributed remainder.
func (c *LotteryCoordinator) DrawRound(ctx context.Context, caller string, forceWin bool) (*DrawOutcome, error) {
	var result *DrawOutcome
	err := c.withUnitOfWork(ctx, "draw_round", func(l *ledger) error {
		if _, err := l.requireOwner(ctx, caller); err != nil {
			return err
		}

		round, err := l.jackpots.LatestOpen(ctx)
		if err != nil {
			return err
		}

		tickets, err := l.tickets.GetByIDs(ctx, round.TicketIDs)
		if err != nil {
			return err
		}

		var forcedTicketID *int64
		if forceWin {
			forcedTicketID, err = l.draws.PickForcedTicket(round)
			if err != nil {
				return err
			}
		}

		outcome, err := l.draws.Settle(ctx, round, tickets, forcedTicketID)
		if err != nil {
			return fmt.Errorf("failed to settle jackpot %d: %w", round.ID, err)
		}
		result = &DrawOutcome{
			SettlementOutcome: outcome,
			JackpotID:         round.ID,
		}

		if !outcome.Closed {
			if err := l.jackpots.Save(ctx, round); err != nil {
				return err
			}
		} else {
			result.CarriedOver = l.jackpots.DrainRemainder(round)
			if err := l.jackpots.Save(ctx, round); err != nil {
				return err
			}

			next, err := l.jackpots.Create(ctx, c.defaultTicketPrice, result.CarriedOver)
			if err != nil {
				return fmt.Errorf("failed to open next jackpot: %w", err)
			}
			result.NextJackpot = next
		}

		if err := l.events.Publish(events.DrawCompletedEvent{
			JackpotID:      round.ID,
			DrawnNumbers:   outcome.DrawnNumbers,
			WinTicketIDs:   outcome.WinTicketIDs,
			PrizePerWinner: outcome.PrizePerWinner,
			Closed:         outcome.Closed,
			Forced:         outcome.Forced,
		}); err != nil {
			log.WithError(err).Error("Failed to publish draw completed event")
		}

		log.WithFields(log.Fields{
			"jackpotID":      round.ID,
			"drawnNumbers":   outcome.DrawnNumbers.String(),
			"winners":        len(outcome.WinTicketIDs),
			"prizePerWinner": outcome.PrizePerWinner,
			"closed":         outcome.Closed,
			"forced":         outcome.Forced,
		}).Info("Draw completed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.RecordDraw(result.Closed, len(result.WinTicketIDs))
	for _, payout := range result.Payouts {
		if payout.Amount > 0 {
			c.metrics.RecordBalanceTransaction(entities.TransactionTypePrize, payout.Amount)
		}
	}
	return result, nil
}

func roundInfo(jackpot *entities.Jackpot, clock interfaces.Clock) *RoundInfo {
	return &RoundInfo{
		Jackpot: jackpot,
		Status:  jackpot.Status(clock.Now()),
	}
}

// GetLatestRound returns the latest round, or nil if none exists
func (c *LotteryCoordinator) GetLatestRound(ctx context.Context) (*RoundInfo, error) {
	var info *RoundInfo
	err := c.query(ctx, func(l *ledger) error {
		latest, err := l.jackpots.Latest(ctx)
		if err != nil {
			return err
		}
		if latest != nil {
			info = roundInfo(latest, c.clock)
		}
		return nil
	})
	return info, err
}

// GetAllRounds returns every round in creation order
func (c *LotteryCoordinator) GetAllRounds(ctx context.Context) ([]*RoundInfo, error) {
	var infos []*RoundInfo
	err := c.query(ctx, func(l *ledger) error {
		all, err := l.jackpots.All(ctx)
		if err != nil {
			return err
		}
		infos = make([]*RoundInfo, 0, len(all))
		for _, j := range all {
			infos = append(infos, roundInfo(j, c.clock))
		}
		return nil
	})
	return infos, err
}

// GetAccountBalance returns the balance, zero for unknown accounts
func (c *LotteryCoordinator) GetAccountBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := c.query(ctx, func(l *ledger) error {
		account, err := l.accounts.Get(ctx, accountID)
		if err != nil {
			return err
		}
		if account != nil {
			balance = account.Balance
		}
		return nil
	})
	return balance, err
}

// GetAccountTickets returns the account's tickets in purchase order
func (c *LotteryCoordinator) GetAccountTickets(ctx context.Context, accountID string) ([]*entities.Ticket, error) {
	tickets := []*entities.Ticket{}
	err := c.query(ctx, func(l *ledger) error {
		account, err := l.accounts.Get(ctx, accountID)
		if err != nil || account == nil {
			return err
		}
		tickets, err = l.tickets.GetByIDs(ctx, account.TicketIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetAccountHistory returns the newest balance changes of the account first
func (c *LotteryCoordinator) GetAccountHistory(ctx context.Context, accountID string, limit int) ([]*entities.BalanceHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	var history []*entities.BalanceHistory
	err := c.query(ctx, func(l *ledger) error {
		var err error
		history, err = l.accounts.History(ctx, accountID, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
