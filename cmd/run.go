package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jackpot/application"
	"jackpot/config"
	"jackpot/domain"
	domainevents "jackpot/domain/events"
	"jackpot/events"
	"jackpot/infrastructure"
	"jackpot/infrastructure/observability"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the ledger service with its scheduled draw worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), config.Get())
		},
	}
}

// Run initializes and starts the ledger service until ctx is cancelled
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"backend":     cfg.StorageBackend,
	}).Info("Starting jackpot ledger...")

	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
			log.WithError(err).Error("Error shutting down metrics")
		}
	}()

	eventBus := events.NewBus()
	subscribeLogging(eventBus)
	publishers := events.Fanout{eventBus}

	if cfg.NATSEnabled {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers, cfg.OTelServiceName)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
			return err
		}
		publishers = append(publishers, infrastructure.NewNATSEventPublisher(natsClient, mapper, cfg.OTelServiceName))
	}

	ledger, err := openLedger(ctx, cfg, publishers, observability.GetMetrics())
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			log.WithError(err).Error("Error closing ledger storage")
		}
	}()

	if err := ensureInitialized(ctx, ledger, cfg.OwnerID); err != nil {
		return err
	}

	if cfg.DrawSchedule != "" {
		worker, err := application.NewDrawWorker(ledger.coordinator, cfg.OwnerID, cfg.DrawSchedule, cfg.DrawForceWin)
		if err != nil {
			return err
		}
		stopWorker := worker.Start(ctx)
		defer stopWorker()
	} else {
		log.Info("No draw schedule configured, draws run through the admin command only")
	}

	log.WithField("environment", cfg.Environment).Info("Ledger is running")
	<-ctx.Done()

	log.Info("Shutting down ledger...")
	return nil
}

// ensureInitialized creates the ledger with the configured owner on first start
func ensureInitialized(ctx context.Context, ledger *ledgerHandle, ownerID string) error {
	if ownerID == "" {
		return nil
	}

	err := ledger.coordinator.Initialize(ctx, ownerID)
	switch {
	case err == nil:
		log.WithField("ownerID", ownerID).Info("Initialized new ledger")
		return nil
	case errors.Is(err, domain.ErrAlreadyInitialized):
		current, err := ledger.coordinator.GetOwnerID(ctx)
		if err != nil {
			return err
		}
		if current != ownerID {
			log.WithFields(log.Fields{
				"configuredOwner": ownerID,
				"ledgerOwner":     current,
			}).Warn("Configured owner is not the ledger owner")
		}
		return nil
	default:
		return fmt.Errorf("failed to initialize ledger: %w", err)
	}
}

// subscribeLogging reports round transitions from the in-process bus
func subscribeLogging(bus *events.Bus) {
	bus.Subscribe(domainevents.EventTypeJackpotCreated, func(ctx context.Context, event domainevents.Event) {
		created, ok := event.(domainevents.JackpotCreatedEvent)
		if !ok {
			return
		}
		log.WithFields(log.Fields{
			"jackpotID":   created.JackpotID,
			"ticketPrice": created.TicketPrice,
			"seedAmount":  created.SeedAmount,
		}).Info("Jackpot opened")
	})
	bus.Subscribe(domainevents.EventTypeDrawCompleted, func(ctx context.Context, event domainevents.Event) {
		draw, ok := event.(domainevents.DrawCompletedEvent)
		if !ok || !draw.Closed {
			return
		}
		log.WithFields(log.Fields{
			"jackpotID":      draw.JackpotID,
			"winners":        len(draw.WinTicketIDs),
			"prizePerWinner": draw.PrizePerWinner,
		}).Info("Jackpot closed")
	})
}
