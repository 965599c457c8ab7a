package repository

import (
	"context"
	"errors"
	"fmt"

	"jackpot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TicketRepository implements ticket data access
type TicketRepository struct {
	q Queryable
}

func newTicketRepository(q Queryable) *TicketRepository {
	return &TicketRepository{q: q}
}

// GetByID returns nil if no ticket has the id
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*entities.Ticket, error) {
	query := `
		SELECT id, account_id, jackpot_id, picked_numbers, created_at
		FROM tickets
		WHERE id = $1
	`

	ticket, err := scanTicket(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket %d: %w", id, err)
	}
	return ticket, nil
}

// GetByIDs returns the tickets in the order of ids. Every id must exist.
func (r *TicketRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entities.Ticket, error) {
	if len(ids) == 0 {
		return []*entities.Ticket{}, nil
	}

	query := `
		SELECT id, account_id, jackpot_id, picked_numbers, created_at
		FROM tickets
		WHERE id = ANY($1)
	`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	defer rows.Close()

	byID := make(map[int64]*entities.Ticket, len(ids))
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		byID[ticket.ID] = ticket
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	tickets := make([]*entities.Ticket, 0, len(ids))
	for _, id := range ids {
		ticket, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("ticket %d not found", id)
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// Create inserts the ticket; its id must be the next in sequence
func (r *TicketRepository) Create(ctx context.Context, ticket *entities.Ticket) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if ticket.ID != count+1 {
		return fmt.Errorf("ticket id %d is not the next id %d", ticket.ID, count+1)
	}

	query := `
		INSERT INTO tickets (id, account_id, jackpot_id, picked_numbers, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.q.Exec(ctx, query,
		ticket.ID,
		ticket.AccountID,
		ticket.JackpotID,
		ticket.PickedNumbers.Int64s(),
		ticket.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ticket %d: %w", ticket.ID, err)
	}
	return nil
}

func (r *TicketRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}

func scanTicket(row pgx.Row) (*entities.Ticket, error) {
	var ticket entities.Ticket
	var picked []int64
	if err := row.Scan(&ticket.ID, &ticket.AccountID, &ticket.JackpotID, &picked, &ticket.CreatedAt); err != nil {
		return nil, err
	}

	numbers, err := entities.NumbersFromInt64s(picked)
	if err != nil {
		return nil, fmt.Errorf("ticket %d has corrupt numbers: %w", ticket.ID, err)
	}
	ticket.PickedNumbers = numbers
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	return &ticket, nil
}
