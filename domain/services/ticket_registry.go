package services

import (
	"context"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/domain/interfaces"
)

// TicketRegistry assigns ticket ids and stores write-once tickets
type TicketRegistry struct {
	ticketRepo interfaces.TicketRepository
	clock      interfaces.Clock
}

// NewTicketRegistry creates a new ticket registry
func NewTicketRegistry(ticketRepo interfaces.TicketRepository, clock interfaces.Clock) *TicketRegistry {
	return &TicketRegistry{
		ticketRepo: ticketRepo,
		clock:      clock,
	}
}

// NextID returns the number of tickets ever created plus one
func (r *TicketRegistry) NextID(ctx context.Context) (int64, error) {
	count, err := r.ticketRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count + 1, nil
}

// ValidateAndCanonicalize sorts picked numbers and rejects invalid sets
func (r *TicketRegistry) ValidateAndCanonicalize(numbers []int) (entities.Numbers, error) {
	return entities.CanonicalizeNumbers(numbers)
}

// Create stores a new ticket with the next id
func (r *TicketRegistry) Create(ctx context.Context, accountID string, jackpotID int64, numbers entities.Numbers) (*entities.Ticket, error) {
	id, err := r.NextID(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &entities.Ticket{
		ID:            id,
		AccountID:     accountID,
		JackpotID:     jackpotID,
		PickedNumbers: numbers,
		CreatedAt:     r.clock.Now(),
	}
	if err := r.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}
	return ticket, nil
}

// GetByIDs loads tickets in the order of the ids given
func (r *TicketRegistry) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Ticket, error) {
	if len(ids) == 0 {
		return []*entities.Ticket{}, nil
	}
	tickets, err := r.ticketRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	return tickets, nil
}
