package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"jackpot/database"

	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageBackendPostgres = "postgres"
	StorageBackendLevelDB  = "leveldb"
	StorageBackendMemory   = "memory"
)

// Config keys. Each key is also read from the environment variable of the
// same name in upper case.
const (
	KeyConfigFile               = "config_file"
	KeyDatabaseURL              = "database_url"
	KeyDatabaseName             = "database_name"
	KeyStorageBackend           = "storage_backend"
	KeyLevelDBPath              = "leveldb_path"
	KeyOwnerID                  = "owner_id"
	KeyDefaultTicketPrice       = "default_ticket_price"
	KeyDrawSchedule             = "draw_schedule"
	KeyDrawForceWin             = "draw_force_win"
	KeyTicketCacheSize          = "ticket_cache_size"
	KeyNATSEnabled              = "nats_enabled"
	KeyNATSServers              = "nats_servers"
	KeyOTelEnabled              = "otel_enabled"
	KeyOTelExporterType         = "otel_exporter_type"
	KeyOTelOTLPEndpoint         = "otel_otlp_endpoint"
	KeyOTelServiceName          = "otel_service_name"
	KeyOTelExportIntervalMillis = "otel_export_interval_millis"
	KeyLogLevel                 = "log_level"
	KeyLogFormat                = "log_format"
	KeyEnvironment              = "environment"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	StorageBackend string // "postgres", "leveldb" or "memory"
	DatabaseURL    string
	DatabaseName   string
	LevelDBPath    string

	// Ledger configuration
	OwnerID            string // Owner used to initialize a fresh ledger and to run scheduled draws
	DefaultTicketPrice int64
	TicketCacheSize    int

	// Draw worker configuration
	DrawSchedule string // Cron expression, empty disables scheduled draws
	DrawForceWin bool

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelServiceName          string
	OTelExportIntervalMillis int

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorageBackend, StorageBackendPostgres)
	v.SetDefault(KeyLevelDBPath, "data/jackpot")
	v.SetDefault(KeyDefaultTicketPrice, 1)
	v.SetDefault(KeyTicketCacheSize, 4096)
	v.SetDefault(KeyNATSServers, "nats://nats:4222")
	v.SetDefault(KeyOTelExporterType, "console")
	v.SetDefault(KeyOTelOTLPEndpoint, "localhost:4317")
	v.SetDefault(KeyOTelServiceName, "jackpot")
	v.SetDefault(KeyOTelExportIntervalMillis, 60000)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyEnvironment, "development")
}

// Get returns the global configuration instance, loaded from the global
// viper instance on first use
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = Load(viper.GetViper())
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Init loads the configuration from v and installs it as the global instance
func Init(v *viper.Viper) (*Config, error) {
	cfg, err := Load(v)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	instance = cfg
	return cfg, nil
}

// Load reads the configuration from v, its bound flags, the environment and
// the optional config file, then validates it
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if file := v.GetString(KeyConfigFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	config := &Config{
		StorageBackend: strings.ToLower(strings.TrimSpace(v.GetString(KeyStorageBackend))),
		DatabaseURL:    v.GetString(KeyDatabaseURL),
		DatabaseName:   v.GetString(KeyDatabaseName),
		LevelDBPath:    v.GetString(KeyLevelDBPath),

		OwnerID:            v.GetString(KeyOwnerID),
		DefaultTicketPrice: v.GetInt64(KeyDefaultTicketPrice),
		TicketCacheSize:    v.GetInt(KeyTicketCacheSize),

		DrawSchedule: strings.TrimSpace(v.GetString(KeyDrawSchedule)),
		DrawForceWin: v.GetBool(KeyDrawForceWin),

		NATSEnabled: v.GetBool(KeyNATSEnabled),
		NATSServers: v.GetString(KeyNATSServers),

		OTelEnabled:              v.GetBool(KeyOTelEnabled),
		OTelExporterType:         v.GetString(KeyOTelExporterType),
		OTelOTLPEndpoint:         v.GetString(KeyOTelOTLPEndpoint),
		OTelServiceName:          v.GetString(KeyOTelServiceName),
		OTelExportIntervalMillis: v.GetInt(KeyOTelExportIntervalMillis),

		LogLevel:  v.GetString(KeyLogLevel),
		LogFormat: v.GetString(KeyLogFormat),

		Environment: v.GetString(KeyEnvironment),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration for the selected backend
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case StorageBackendPostgres:
		if c.DatabaseURL == "" && c.Environment != "test" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", StorageBackendPostgres)
		}
	case StorageBackendLevelDB:
		if strings.TrimSpace(c.LevelDBPath) == "" {
			return fmt.Errorf("LEVELDB_PATH is required for the %s backend", StorageBackendLevelDB)
		}
	case StorageBackendMemory:
	default:
		return fmt.Errorf("unknown storage backend: %q", c.StorageBackend)
	}

	if c.DefaultTicketPrice <= 0 {
		return fmt.Errorf("DEFAULT_TICKET_PRICE must be positive, got %d", c.DefaultTicketPrice)
	}
	if c.DrawSchedule != "" && c.OwnerID == "" {
		return fmt.Errorf("OWNER_ID is required when DRAW_SCHEDULE is set")
	}
	if c.NATSEnabled && strings.TrimSpace(c.NATSServers) == "" {
		return fmt.Errorf("NATS_SERVERS is required when NATS is enabled")
	}
	if c.OTelEnabled && c.OTelExportIntervalMillis <= 0 {
		return fmt.Errorf("OTEL_EXPORT_INTERVAL_MILLIS must be positive")
	}

	return nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		StorageBackend:           StorageBackendMemory,
		OwnerID:                  "owner",
		DefaultTicketPrice:       1,
		TicketCacheSize:          64,
		OTelExporterType:         "none",
		OTelServiceName:          "jackpot-test",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 "debug",
		LogFormat:                "text",
		Environment:              "test",
	}
}
