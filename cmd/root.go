package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"jackpot/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the jackpot command tree. Persistent flags are
// bound to config keys of v, so flags, environment and config file share
// one set of names.
func NewRootCommand(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jackpot",
		Short:         "Lottery ledger with jackpot rounds, tickets and draws",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Init(v)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return setupLogging(cfg)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("storage-backend", "", "storage backend: postgres, leveldb or memory")
	flags.String("database-url", "", "PostgreSQL base URL")
	flags.String("database-name", "", "PostgreSQL database name")
	flags.String("leveldb-path", "", "LevelDB data directory")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")

	bindings := map[string]string{
		config.KeyConfigFile:     "config",
		config.KeyStorageBackend: "storage-backend",
		config.KeyDatabaseURL:    "database-url",
		config.KeyDatabaseName:   "database-name",
		config.KeyLevelDBPath:    "leveldb-path",
		config.KeyLogLevel:       "log-level",
		config.KeyLogFormat:      "log-format",
	}
	for key, flag := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(
		newRunCommand(),
		newMigrateCommand(),
		newAdminCommand(),
		newWatchCommand(),
	)
	return rootCmd
}

// Execute runs the command tree with the process arguments
func Execute(ctx context.Context) error {
	return NewRootCommand(viper.GetViper()).ExecuteContext(ctx)
}

func setupLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return nil
}
