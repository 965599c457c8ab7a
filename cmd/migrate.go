package cmd

import (
	"fmt"
	"strconv"

	"jackpot/config"
	"jackpot/database"

	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return database.MigrateUp(migrationURL())
			},
		},
		&cobra.Command{
			Use:   "down [steps]",
			Short: "Roll back migrations (default 1)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				steps := 1
				if len(args) == 1 {
					parsed, err := strconv.Atoi(args[0])
					if err != nil {
						return fmt.Errorf("invalid steps value: %w", err)
					}
					steps = parsed
				}
				return database.MigrateDown(migrationURL(), steps)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				status, err := database.MigrateStatus(migrationURL())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !status.Applied {
					fmt.Fprintln(out, "No migrations have been applied yet")
					return nil
				}
				state := "clean"
				if status.Dirty {
					state = "dirty"
				}
				fmt.Fprintf(out, "Current migration version: %d (status: %s)\n", status.Version, state)
				return nil
			},
		},
	)
	return migrateCmd
}

func migrationURL() string {
	return config.Get().GetDatabaseURL()
}
