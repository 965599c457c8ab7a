package services

import (
	"context"
	"fmt"
	"time"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/events"
	"jackpot/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// JackpotManager owns the append-only log of rounds. Only the latest round
// is ever mutated.
type JackpotManager struct {
	jackpotRepo    interfaces.JackpotRepository
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
}

// NewJackpotManager creates a new jackpot manager
func NewJackpotManager(jackpotRepo interfaces.JackpotRepository, eventPublisher interfaces.EventPublisher, clock interfaces.Clock) *JackpotManager {
	return &JackpotManager{
		jackpotRepo:    jackpotRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// Latest returns the most recent round, or nil if none was created
func (m *JackpotManager) Latest(ctx context.Context) (*entities.Jackpot, error) {
	jackpot, err := m.jackpotRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest jackpot: %w", err)
	}
	return jackpot, nil
}

// LatestOpen returns the latest round if it is open now
func (m *JackpotManager) LatestOpen(ctx context.Context) (*entities.Jackpot, error) {
	jackpot, err := m.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if jackpot == nil || !jackpot.IsOpen(m.clock.Now()) {
		return nil, domain.ErrNoOpenJackpot
	}
	return jackpot, nil
}

// All returns every round in creation order
func (m *JackpotManager) All(ctx context.Context) ([]*entities.Jackpot, error) {
	jackpots, err := m.jackpotRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get jackpots: %w", err)
	}
	return jackpots, nil
}

// Create opens a new round. It fails with ErrConflict while the latest
// round is still open.
func (m *JackpotManager) Create(ctx context.Context, ticketPrice, seedAmount int64) (*entities.Jackpot, error) {
	if ticketPrice <= 0 {
		return nil, fmt.Errorf("%w: ticket price %d", domain.ErrInvalidAmount, ticketPrice)
	}
	if seedAmount < 0 {
		return nil, fmt.Errorf("%w: seed amount %d", domain.ErrInvalidAmount, seedAmount)
	}

	now := m.clock.Now()
	latest, err := m.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.IsOpen(now) {
		return nil, fmt.Errorf("%w: jackpot %d", domain.ErrConflict, latest.ID)
	}

	count, err := m.jackpotRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count jackpots: %w", err)
	}

	jackpot := entities.NewJackpot(count+1, ticketPrice, seedAmount, now)
	if err := m.jackpotRepo.Append(ctx, jackpot); err != nil {
		return nil, fmt.Errorf("failed to create jackpot: %w", err)
	}

	log.WithFields(log.Fields{
		"jackpotID":   jackpot.ID,
		"ticketPrice": ticketPrice,
		"seedAmount":  seedAmount,
	}).Info("Jackpot created")

	if err := m.eventPublisher.Publish(events.JackpotCreatedEvent{
		JackpotID:   jackpot.ID,
		TicketPrice: ticketPrice,
		SeedAmount:  seedAmount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish jackpot created event")
	}

	return jackpot, nil
}

// AddTicket appends a sold ticket and pools its price
func (m *JackpotManager) AddTicket(round *entities.Jackpot, ticketID, price int64) error {
	if price != round.TicketPrice {
		return fmt.Errorf("%w: paid %d, price is %d", domain.ErrTicketPriceMismatch, price, round.TicketPrice)
	}
	locked, err := domain.AddAmounts(round.LockedAmount, price)
	if err != nil {
		return fmt.Errorf("failed to pool ticket price into jackpot %d: %w", round.ID, err)
	}
	round.TicketIDs = append(round.TicketIDs, ticketID)
	round.LockedAmount = locked
	return nil
}

// RecordDraw appends a draw result, winning or not
func (m *JackpotManager) RecordDraw(round *entities.Jackpot, result entities.DrawingResult) {
	round.DrawResults = append(round.DrawResults, result)
}

// Close ends the round. A closed round keeps its original end time.
func (m *JackpotManager) Close(round *entities.Jackpot, endTime time.Time) {
	if round.EndTime != nil {
		return
	}
	end := endTime
	round.EndTime = &end
}

// DrainRemainder empties the locked amount of a closed round and returns it
func (m *JackpotManager) DrainRemainder(round *entities.Jackpot) int64 {
	if !round.IsClosed() {
		return 0
	}
	remainder := round.LockedAmount
	round.LockedAmount = 0
	return remainder
}

// Save persists changes to the latest round
func (m *JackpotManager) Save(ctx context.Context, round *entities.Jackpot) error {
	if err := m.jackpotRepo.UpdateLatest(ctx, round); err != nil {
		return fmt.Errorf("failed to save jackpot %d: %w", round.ID, err)
	}
	return nil
}
