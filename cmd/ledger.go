package cmd

import (
	"context"
	"errors"
	"fmt"

	"jackpot/config"
	"jackpot/database"
	"jackpot/domain/interfaces"
	"jackpot/domain/services"
	"jackpot/repository"
	"jackpot/repository/kv"
	"jackpot/storage"

	log "github.com/sirupsen/logrus"
)

// ledgerHandle owns the storage behind a coordinator
type ledgerHandle struct {
	coordinator *services.LotteryCoordinator
	closers     []func() error
}

func (h *ledgerHandle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		errs = append(errs, h.closers[i]())
	}
	return errors.Join(errs...)
}

// openLedger connects the configured storage backend and builds a coordinator
func openLedger(ctx context.Context, cfg *config.Config, publisher interfaces.EventPublisher, metrics interfaces.LedgerMetrics) (*ledgerHandle, error) {
	handle := &ledgerHandle{}

	var factory interfaces.UnitOfWorkFactory
	switch cfg.StorageBackend {
	case config.StorageBackendPostgres:
		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		handle.closers = append(handle.closers, func() error {
			log.Info("Closing database connection...")
			db.Close()
			return nil
		})
		factory = repository.NewUnitOfWorkFactory(db, publisher)

	case config.StorageBackendLevelDB, config.StorageBackendMemory:
		var (
			store *storage.Store
			err   error
		)
		if cfg.StorageBackend == config.StorageBackendLevelDB {
			log.WithField("path", cfg.LevelDBPath).Info("Opening LevelDB store...")
			store, err = storage.Open(cfg.LevelDBPath)
		} else {
			log.Warn("Using in-memory store, the ledger is lost on exit")
			store, err = storage.OpenMemory()
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		handle.closers = append(handle.closers, store.Close)

		factory, err = kv.NewUnitOfWorkFactory(store, publisher, cfg.TicketCacheSize)
		if err != nil {
			handle.Close()
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}

	handle.coordinator = services.NewLotteryCoordinator(
		factory,
		services.NewCryptoRandomSource(),
		services.NewSystemClock(),
		metrics,
		cfg.DefaultTicketPrice,
	)
	return handle, nil
}
