package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"jackpot/config"
	"jackpot/infrastructure"

	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print ledger events published to NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if !cfg.NATSEnabled {
				return fmt.Errorf("NATS is disabled, set NATS_ENABLED=true")
			}
			return watchEvents(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func watchEvents(ctx context.Context, cfg *config.Config, out io.Writer) error {
	client := infrastructure.NewNATSClient(cfg.NATSServers, cfg.OTelServiceName+"-watch")
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
		return err
	}

	var mu sync.Mutex
	printEnvelope := func(data []byte) error {
		envelope, err := infrastructure.DecodeEnvelope(data)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		_, err = fmt.Fprintf(out, "%s %s %s %s\n",
			envelope.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			envelope.EventType,
			envelope.EventID,
			envelope.Payload,
		)
		return err
	}

	for _, subject := range mapper.GetAllSubjects() {
		if err := client.Subscribe(subject, printEnvelope); err != nil {
			return err
		}
	}

	<-ctx.Done()
	return nil
}
