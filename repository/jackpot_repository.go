package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jackpot/domain"
	"jackpot/domain/entities"

	"github.com/jackc/pgx/v5"
)

// JackpotRepository implements round data access. A round is spread over
// jackpots, drawing_results and jackpot_winners; its ticket ids are read
// back from tickets.
type JackpotRepository struct {
	q Queryable
}

func newJackpotRepository(q Queryable) *JackpotRepository {
	return &JackpotRepository{q: q}
}

const jackpotColumns = `
	j.id,
	j.ticket_price,
	j.locked_amount,
	j.start_time,
	j.end_time,
	j.created_at,
	COALESCE(
		(SELECT array_agg(t.id ORDER BY t.id) FROM tickets t WHERE t.jackpot_id = j.id),
		'{}'
	) AS ticket_ids,
	COALESCE(
		(SELECT array_agg(w.ticket_id ORDER BY w.ticket_id) FROM jackpot_winners w WHERE w.jackpot_id = j.id),
		'{}'
	) AS win_ticket_ids
`

// GetLatest returns nil if no round exists
func (r *JackpotRepository) GetLatest(ctx context.Context) (*entities.Jackpot, error) {
	query := `SELECT ` + jackpotColumns + ` FROM jackpots j ORDER BY j.id DESC LIMIT 1`

	jackpot, err := scanJackpot(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest jackpot: %w", err)
	}

	results, err := r.drawResults(ctx, &jackpot.ID)
	if err != nil {
		return nil, err
	}
	jackpot.DrawResults = append(jackpot.DrawResults, results[jackpot.ID]...)
	return jackpot, nil
}

func (r *JackpotRepository) GetAll(ctx context.Context) ([]*entities.Jackpot, error) {
	query := `SELECT ` + jackpotColumns + ` FROM jackpots j ORDER BY j.id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list jackpots: %w", err)
	}
	defer rows.Close()

	jackpots := []*entities.Jackpot{}
	for rows.Next() {
		jackpot, err := scanJackpot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan jackpot: %w", err)
		}
		jackpots = append(jackpots, jackpot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jackpots: %w", err)
	}

	results, err := r.drawResults(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, jackpot := range jackpots {
		jackpot.DrawResults = append(jackpot.DrawResults, results[jackpot.ID]...)
	}
	return jackpots, nil
}

func (r *JackpotRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM jackpots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jackpots: %w", err)
	}
	return count, nil
}

// Append inserts a new round; its id must be the next in sequence
func (r *JackpotRepository) Append(ctx context.Context, jackpot *entities.Jackpot) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if jackpot.ID != count+1 {
		return fmt.Errorf("jackpot id %d is not the next id %d", jackpot.ID, count+1)
	}

	query := `
		INSERT INTO jackpots (id, ticket_price, locked_amount, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.q.Exec(ctx, query,
		jackpot.ID,
		jackpot.TicketPrice,
		jackpot.LockedAmount,
		jackpot.StartTime,
		jackpot.EndTime,
		jackpot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append jackpot %d: %w", jackpot.ID, err)
	}

	return r.syncChildren(ctx, jackpot)
}

// UpdateLatest writes the mutable fields of the latest round and appends
// draw results and winners not yet stored
func (r *JackpotRepository) UpdateLatest(ctx context.Context, jackpot *entities.Jackpot) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 || jackpot.ID != count {
		return fmt.Errorf("%w: jackpot %d, latest is %d", domain.ErrRoundImmutable, jackpot.ID, count)
	}

	query := `
		UPDATE jackpots
		SET locked_amount = $2,
		    end_time = $3
		WHERE id = $1
	`

	if _, err := r.q.Exec(ctx, query, jackpot.ID, jackpot.LockedAmount, jackpot.EndTime); err != nil {
		return fmt.Errorf("failed to update jackpot %d: %w", jackpot.ID, err)
	}

	return r.syncChildren(ctx, jackpot)
}

func (r *JackpotRepository) syncChildren(ctx context.Context, jackpot *entities.Jackpot) error {
	var stored int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM drawing_results WHERE jackpot_id = $1`, jackpot.ID).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to count draw results for jackpot %d: %w", jackpot.ID, err)
	}
	if stored > len(jackpot.DrawResults) {
		return fmt.Errorf("jackpot %d would drop stored draw results", jackpot.ID)
	}

	for _, result := range jackpot.DrawResults[stored:] {
		_, err := r.q.Exec(ctx, `
			INSERT INTO drawing_results (jackpot_id, drawn_numbers, created_at)
			VALUES ($1, $2, $3)
		`, jackpot.ID, result.DrawnNumbers.Int64s(), result.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to record draw result for jackpot %d: %w", jackpot.ID, err)
		}
	}

	if len(jackpot.WinTicketIDs) > 0 {
		_, err := r.q.Exec(ctx, `
			INSERT INTO jackpot_winners (jackpot_id, ticket_id)
			SELECT $1, unnest($2::BIGINT[])
			ON CONFLICT DO NOTHING
		`, jackpot.ID, jackpot.WinTicketIDs)
		if err != nil {
			return fmt.Errorf("failed to record winners for jackpot %d: %w", jackpot.ID, err)
		}
	}

	return nil
}

// drawResults loads draw results grouped by jackpot, for one jackpot or all
func (r *JackpotRepository) drawResults(ctx context.Context, jackpotID *int64) (map[int64][]entities.DrawingResult, error) {
	query := `
		SELECT jackpot_id, drawn_numbers, created_at
		FROM drawing_results
		WHERE $1::BIGINT IS NULL OR jackpot_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, jackpotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draw results: %w", err)
	}
	defer rows.Close()

	results := make(map[int64][]entities.DrawingResult)
	for rows.Next() {
		var (
			id        int64
			drawn     []int64
			createdAt time.Time
		)
		if err := rows.Scan(&id, &drawn, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan draw result: %w", err)
		}
		numbers, err := entities.NumbersFromInt64s(drawn)
		if err != nil {
			return nil, fmt.Errorf("jackpot %d has a corrupt draw result: %w", id, err)
		}
		results[id] = append(results[id], entities.DrawingResult{DrawnNumbers: numbers, CreatedAt: createdAt.UTC()})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draw results: %w", err)
	}
	return results, nil
}

func scanJackpot(row pgx.Row) (*entities.Jackpot, error) {
	var jackpot entities.Jackpot
	err := row.Scan(
		&jackpot.ID,
		&jackpot.TicketPrice,
		&jackpot.LockedAmount,
		&jackpot.StartTime,
		&jackpot.EndTime,
		&jackpot.CreatedAt,
		&jackpot.TicketIDs,
		&jackpot.WinTicketIDs,
	)
	if err != nil {
		return nil, err
	}

	jackpot.StartTime = jackpot.StartTime.UTC()
	jackpot.CreatedAt = jackpot.CreatedAt.UTC()
	if jackpot.EndTime != nil {
		end := jackpot.EndTime.UTC()
		jackpot.EndTime = &end
	}
	if jackpot.TicketIDs == nil {
		jackpot.TicketIDs = []int64{}
	}
	if jackpot.WinTicketIDs == nil {
		jackpot.WinTicketIDs = []int64{}
	}
	jackpot.DrawResults = []entities.DrawingResult{}
	return &jackpot, nil
}
