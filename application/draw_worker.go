package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jackpot/domain"
	"jackpot/domain/entities"
	"jackpot/domain/services"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// LedgerDrawer is the part of the ledger the draw worker drives
type LedgerDrawer interface {
	GetLatestRound(ctx context.Context) (*services.RoundInfo, error)
	CreateRound(ctx context.Context, caller string, ticketPrice *int64, seedAmount int64) (*entities.Jackpot, error)
	DrawRound(ctx context.Context, caller string, forceWin bool) (*services.DrawOutcome, error)
}

// scheduleParser accepts standard five-field expressions, an optional
// seconds field and descriptors such as @hourly or @every 10m
var scheduleParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// DrawWorker draws the open round on a cron schedule, acting as the owner.
// When no round is open it opens one at the default price instead.
type DrawWorker struct {
	ledger   LedgerDrawer
	ownerID  string
	schedule cron.Schedule
	expr     string
	forceWin bool

	mu sync.Mutex // serializes runs when a tick overlaps a manual RunOnce
}

// NewDrawWorker validates the schedule and creates a worker
func NewDrawWorker(ledger LedgerDrawer, ownerID, schedule string, forceWin bool) (*DrawWorker, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("draw worker requires an owner id")
	}

	parsed, err := scheduleParser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid draw schedule %q: %w", schedule, err)
	}

	return &DrawWorker{
		ledger:   ledger,
		ownerID:  ownerID,
		schedule: parsed,
		expr:     schedule,
		forceWin: forceWin,
	}, nil
}

// Next returns the next scheduled run after t
func (w *DrawWorker) Next(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// RunOnce performs one scheduled step. It returns the draw outcome, or nil
// when a round was opened or the open round had no tickets to draw.
func (w *DrawWorker) RunOnce(ctx context.Context) (*services.DrawOutcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	latest, err := w.ledger.GetLatestRound(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest jackpot: %w", err)
	}

	if latest == nil || latest.Status != entities.JackpotStatusOpen {
		round, err := w.ledger.CreateRound(ctx, w.ownerID, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to open jackpot: %w", err)
		}
		log.WithFields(log.Fields{
			"jackpotID":   round.ID,
			"ticketPrice": round.TicketPrice,
		}).Info("Draw worker opened a jackpot")
		return nil, nil
	}

	if len(latest.TicketIDs) == 0 {
		log.WithField("jackpotID", latest.ID).Debug("Skipping draw, jackpot has no tickets")
		return nil, nil
	}

	outcome, err := w.ledger.DrawRound(ctx, w.ownerID, w.forceWin)
	if err != nil {
		return nil, fmt.Errorf("failed to draw jackpot %d: %w", latest.ID, err)
	}
	return outcome, nil
}

// Start runs the worker on its schedule until ctx is cancelled.
// Returns a cleanup function that stops the worker and waits for a running
// step to finish.
func (w *DrawWorker) Start(ctx context.Context) func() {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithParser(scheduleParser))
	c.Schedule(w.schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.RunOnce(ctx); err != nil {
			entry := log.WithError(err)
			if errors.Is(err, domain.ErrPermissionDenied) {
				entry.Warn("Draw worker is not the ledger owner")
				return
			}
			entry.Error("Scheduled draw failed")
		}
	}))
	c.Start()

	log.WithFields(log.Fields{
		"schedule": w.expr,
		"ownerID":  w.ownerID,
		"forceWin": w.forceWin,
	}).Info("Draw worker started")

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			log.Info("Draw worker shutting down (context cancelled)...")
		case <-stopped:
			log.Info("Draw worker shutting down (stop requested)...")
		}
		<-c.Stop().Done()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stopped)
			<-c.Stop().Done()
		})
	}
}
