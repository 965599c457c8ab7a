package services

import (
	"context"
	"errors"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/domain/interfaces"
)

// maxDrawAttempts caps rejection sampling so a degenerate random source
// fails instead of spinning forever
const maxDrawAttempts = 1 << 12

// Payout is the prize credited for one winning ticket
type Payout struct {
	TicketID  int64  `json:"ticketId"`
	AccountID string `json:"accountId"`
	Amount    int64  `json:"amount"`
}

// SettlementOutcome describes one executed draw
type SettlementOutcome struct {
	DrawnNumbers   entities.Numbers `json:"drawnNumbers"`
	WinTicketIDs   []int64          `json:"winTicketIds"`
	Payouts        []Payout         `json:"payouts"`
	PrizePerWinner int64            `json:"prizePerWinner"`
	Remainder      int64            `json:"remainder"`
	Closed         bool             `json:"closed"`
	Forced         bool             `json:"forced"`
}

// DrawEngine draws numbers, finds winning tickets and splits the pool
type DrawEngine struct {
	random   interfaces.RandomSource
	jackpots *JackpotManager
	accounts *AccountLedger
	clock    interfaces.Clock
}

// NewDrawEngine creates a new draw engine
func NewDrawEngine(random interfaces.RandomSource, jackpots *JackpotManager, accounts *AccountLedger, clock interfaces.Clock) *DrawEngine {
	return &DrawEngine{
		random:   random,
		jackpots: jackpots,
		accounts: accounts,
		clock:    clock,
	}
}

// DrawNumbers samples NumberCount distinct numbers, discarding repeats
func (e *DrawEngine) DrawNumbers() (entities.Numbers, error) {
	chosen := make(map[int]bool, entities.NumberCount)
	values := make([]int, 0, entities.NumberCount)

	for attempt := 0; len(values) < entities.NumberCount; attempt++ {
		if attempt >= maxDrawAttempts {
			return entities.Numbers{}, errors.New("random source did not produce enough distinct numbers")
		}

		v, err := e.random.NextUint(entities.MaxNumber)
		if err != nil {
			return entities.Numbers{}, fmt.Errorf("failed to draw number: %w", err)
		}
		n := int(v)
		if n < 1 || n > entities.MaxNumber {
			return entities.Numbers{}, fmt.Errorf("random source returned %d outside [1, %d]", v, entities.MaxNumber)
		}
		if chosen[n] {
			continue
		}
		chosen[n] = true
		values = append(values, n)
	}

	return entities.CanonicalizeNumbers(values)
}

// Matches reports whether a ticket's numbers equal the drawn numbers
func (e *DrawEngine) Matches(ticketNumbers, drawnNumbers entities.Numbers) bool {
	return ticketNumbers.Equal(drawnNumbers)
}

// PickForcedTicket selects one ticket of the round through the random
// source. It returns nil when the round has no tickets.
func (e *DrawEngine) PickForcedTicket(round *entities.Jackpot) (*int64, error) {
	if len(round.TicketIDs) == 0 {
		return nil, nil
	}
	idx, err := e.random.NextUint(uint64(len(round.TicketIDs)))
	if err != nil {
		return nil, fmt.Errorf("failed to pick ticket: %w", err)
	}
	if idx < 1 || idx > uint64(len(round.TicketIDs)) {
		return nil, fmt.Errorf("random source returned %d outside [1, %d]", idx, len(round.TicketIDs))
	}
	id := round.TicketIDs[idx-1]
	return &id, nil
}

// Settle runs one draw against the round. Winners share the locked amount
// by integer division and the round closes holding only the remainder,
// which the coordinator drains into the next round. Without winners the
// round stays open and its locked amount is untouched.
func (e *DrawEngine) Settle(ctx context.Context, round *entities.Jackpot, tickets []*entities.Ticket, forcedTicketID *int64) (*SettlementOutcome, error) {
	ticketsByID := make(map[int64]*entities.Ticket, len(tickets))
	for _, t := range tickets {
		ticketsByID[t.ID] = t
	}

	now := e.clock.Now()
	outcome := &SettlementOutcome{
		WinTicketIDs: []int64{},
		Payouts:      []Payout{},
		Forced:       forcedTicketID != nil,
	}

	if forcedTicketID != nil {
		forced, ok := ticketsByID[*forcedTicketID]
		if !ok || !round.HasTicket(*forcedTicketID) {
			return nil, fmt.Errorf("ticket %d is not part of jackpot %d", *forcedTicketID, round.ID)
		}
		outcome.DrawnNumbers = forced.PickedNumbers
	} else {
		drawn, err := e.DrawNumbers()
		if err != nil {
			return nil, err
		}
		outcome.DrawnNumbers = drawn
	}

	e.jackpots.RecordDraw(round, entities.DrawingResult{
		DrawnNumbers: outcome.DrawnNumbers,
		CreatedAt:    now,
	})

	var winners []*entities.Ticket
	for _, id := range round.TicketIDs {
		ticket, ok := ticketsByID[id]
		if !ok {
			return nil, fmt.Errorf("ticket %d of jackpot %d not loaded", id, round.ID)
		}
		if e.Matches(ticket.PickedNumbers, outcome.DrawnNumbers) {
			winners = append(winners, ticket)
			outcome.WinTicketIDs = append(outcome.WinTicketIDs, id)
		}
	}

	if len(winners) == 0 {
		return outcome, nil
	}

	round.WinTicketIDs = append(round.WinTicketIDs, outcome.WinTicketIDs...)
	e.jackpots.Close(round, now)
	outcome.Closed = true

	prize := round.LockedAmount / int64(len(winners))
	outcome.PrizePerWinner = prize

	// One account can hold several winning tickets; credit a single instance
	accounts := make(map[string]*entities.Account)
	for _, ticket := range winners {
		if prize > 0 {
			account, ok := accounts[ticket.AccountID]
			if !ok {
				var err error
				account, err = e.accounts.GetOrCreate(ctx, ticket.AccountID)
				if err != nil {
					return nil, err
				}
				accounts[ticket.AccountID] = account
			}

			metadata := map[string]any{
				"jackpot_id":    round.ID,
				"ticket_id":     ticket.ID,
				"drawn_numbers": outcome.DrawnNumbers.String(),
				"winner_count":  len(winners),
			}
			if err := e.accounts.Credit(ctx, account, prize, entities.TransactionTypePrize, metadata); err != nil {
				return nil, fmt.Errorf("failed to credit winner: %w", err)
			}
			round.LockedAmount -= prize
		}

		outcome.Payouts = append(outcome.Payouts, Payout{
			TicketID:  ticket.ID,
			AccountID: ticket.AccountID,
			Amount:    prize,
		})
	}

	outcome.Remainder = round.LockedAmount
	return outcome, nil
}
