package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"wagerbot/database"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageBackendFile     = "file"
	StorageBackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string // Registers commands to one guild when set, globally otherwise

	// Storage configuration
	StorageBackend string // "file" or "postgres"
	StatsFile      string
	BetsFile       string
	DatabaseURL    string
	DatabaseName   string

	// Users allowed to settle or delete bets; empty means everyone
	ResolverDiscordIDs []int64

	// NATS configuration
	NATSServers string // Comma-separated, empty disables event forwarding

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

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsResolver reports whether the Discord user may settle or delete bets
func (c *Config) IsResolver(discordID int64) bool {
	if len(c.ResolverDiscordIDs) == 0 {
		return true
	}
	for _, id := range c.ResolverDiscordIDs {
		if id == discordID {
			return true
		}
	}
	return false
}

// load loads configuration from the environment, seeded from .env when present
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		// Discord
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		// Storage
		StorageBackend: getEnvWithDefault("STORAGE_BACKEND", StorageBackendFile),
		StatsFile:      getEnvWithDefault("STATS_FILE", "user_stats.json"),
		BetsFile:       getEnvWithDefault("BETS_FILE", "active_bets.json"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseName:   os.Getenv("DATABASE_NAME"),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "wagerbot"),
		OTelExportIntervalMillis: 60000,

		// Logging
		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Parse resolver Discord IDs
	if resolverIDs := os.Getenv("RESOLVER_DISCORD_IDS"); resolverIDs != "" {
		for _, idStr := range strings.Split(resolverIDs, ",") {
			idStr = strings.TrimSpace(idStr)
			if idStr == "" {
				continue
			}
			if id, err := strconv.ParseInt(idStr, 10, 64); err == nil {
				config.ResolverDiscordIDs = append(config.ResolverDiscordIDs, id)
			}
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.StorageBackend {
	case StorageBackendFile:
		if c.StatsFile == "" || c.BetsFile == "" {
			return fmt.Errorf("STATS_FILE and BETS_FILE are required for the file backend")
		}
	case StorageBackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Environment != "test" && c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
		StorageBackend:           StorageBackendFile,
		StatsFile:                "user_stats.json",
		BetsFile:                 "active_bets.json",
		OTelExporterType:         "none",
		OTelServiceName:          "wagerbot-test",
		OTelExportIntervalMillis: 1000,
		LogLevel:                 "debug",
		LogFormat:                "text",
		Environment:              "test",
	}
}
