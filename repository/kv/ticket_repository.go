package kv

import (
	"context"
	"fmt"

	"jackpot/domain/entities"
	"jackpot/storage"

	lru "github.com/hashicorp/golang-lru"
)

// ticketRepository stores tickets in a log where ticket id N lives at
// index N-1. Committed tickets never change, so they are cached across
// units of work; tickets created in this unit of work are only cached once
// it commits.
type ticketRepository struct {
	log     *storage.Log[entities.Ticket]
	cache   *lru.Cache
	created []*entities.Ticket
}

func newTicketRepository(rw storage.ReadWriter, cache *lru.Cache) *ticketRepository {
	return &ticketRepository{
		log:   storage.NewLog[entities.Ticket](rw, "tickets"),
		cache: cache,
	}
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*entities.Ticket, error) {
	if cached, ok := r.cache.Get(id); ok {
		ticket := *cached.(*entities.Ticket)
		return &ticket, nil
	}

	ticket, err := r.log.Get(id - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	if ticket == nil {
		return nil, nil
	}
	if !r.isCreated(id) {
		cached := *ticket
		r.cache.Add(id, &cached)
	}
	return ticket, nil
}

func (r *ticketRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Ticket, error) {
	tickets := make([]*entities.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ticket == nil {
			return nil, fmt.Errorf("ticket %d not found", id)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *entities.Ticket) error {
	count, err := r.log.Len()
	if err != nil {
		return fmt.Errorf("failed to count tickets: %w", err)
	}
	if ticket.ID != count+1 {
		return fmt.Errorf("ticket id %d is not the next id %d", ticket.ID, count+1)
	}

	if _, err := r.log.Append(ticket); err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	stored := *ticket
	r.created = append(r.created, &stored)
	return nil
}

func (r *ticketRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.log.Len()
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func (r *ticketRepository) isCreated(id int64) bool {
	for _, t := range r.created {
		if t.ID == id {
			return true
		}
	}
	return false
}

// publishCreated moves tickets of a committed unit of work into the cache
func (r *ticketRepository) publishCreated() {
	for _, t := range r.created {
		r.cache.Add(t.ID, t)
	}
	r.created = nil
}
