package kv

import (
	"context"
	"fmt"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/storage"
)

// jackpotRepository stores rounds in a log where round id N lives at index N-1
type jackpotRepository struct {
	log *storage.Log[entities.Jackpot]
}

func newJackpotRepository(rw storage.ReadWriter) *jackpotRepository {
	return &jackpotRepository{log: storage.NewLog[entities.Jackpot](rw, "jackpots")}
}

func (r *jackpotRepository) GetLatest(ctx context.Context) (*entities.Jackpot, error) {
	count, err := r.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	jackpot, err := r.log.Get(count - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest jackpot: %w", err)
	}
	return normalizeJackpot(jackpot), nil
}

func (r *jackpotRepository) GetAll(ctx context.Context) ([]*entities.Jackpot, error) {
	jackpots := []*entities.Jackpot{}
	err := r.log.Range(func(_ int64, jackpot *entities.Jackpot) error {
		jackpots = append(jackpots, normalizeJackpot(jackpot))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list jackpots: %w", err)
	}
	return jackpots, nil
}

func (r *jackpotRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.log.Len()
	if err != nil {
		return 0, fmt.Errorf("failed to count jackpots: %w", err)
	}
	return count, nil
}

func (r *jackpotRepository) Append(ctx context.Context, jackpot *entities.Jackpot) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if jackpot.ID != count+1 {
		return fmt.Errorf("jackpot id %d is not the next id %d", jackpot.ID, count+1)
	}
	if _, err := r.log.Append(jackpot); err != nil {
		return fmt.Errorf("failed to append jackpot: %w", err)
	}
	return nil
}

func (r *jackpotRepository) UpdateLatest(ctx context.Context, jackpot *entities.Jackpot) error {
	count, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if count == 0 || jackpot.ID != count {
		return fmt.Errorf("%w: jackpot %d, latest is %d", domain.ErrRoundImmutable, jackpot.ID, count)
	}
	if err := r.log.ReplaceLast(jackpot); err != nil {
		return fmt.Errorf("failed to update jackpot: %w", err)
	}
	return nil
}

func normalizeJackpot(j *entities.Jackpot) *entities.Jackpot {
	if j == nil {
		return nil
	}
	if j.TicketIDs == nil {
		j.TicketIDs = []int64{}
	}
	if j.WinTicketIDs == nil {
		j.WinTicketIDs = []int64{}
	}
	if j.DrawResults == nil {
		j.DrawResults = []entities.DrawingResult{}
	}
	return j
}
