package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Chain
	ChainID         uint64
	RPCURL          string
	PrivateKey      string
	InfiniteApprove bool

	// Order-index API
	OrderAPIURL   string
	OrderAPIWSURL string

	// Order watch
	WatchPollInterval time.Duration
	WatchRetryDelay   time.Duration
	WatchMaxRetryWait time.Duration

	// Journal
	JournalMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Chain defaults
		ChainID:         getUint64OrDefault("CHAIN_ID", 1),
		RPCURL:          getEnvOrDefault("ETH_RPC_URL", "https://eth.llamarpc.com"),
		PrivateKey:      os.Getenv("WALLET_PRIVATE_KEY"),
		InfiniteApprove: getBoolOrDefault("INFINITE_APPROVE", false),

		// Order-index API defaults
		OrderAPIURL:   getEnvOrDefault("ORDER_API_URL", "https://api.nftex.org"),
		OrderAPIWSURL: getEnvOrDefault("ORDER_API_WS_URL", "wss://api.nftex.org/ws"),

		// Order watch defaults
		WatchPollInterval: getDurationOrDefault("WATCH_POLL_INTERVAL", 2*time.Second),
		WatchRetryDelay:   getDurationOrDefault("WATCH_RETRY_DELAY", 1*time.Second),
		WatchMaxRetryWait: getDurationOrDefault("WATCH_MAX_RETRY_WAIT", 30*time.Second),

		// Journal defaults
		JournalMode:  getEnvOrDefault("JOURNAL_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "fillengine"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "fillengine"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "fill_engine"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("ETH_RPC_URL cannot be empty")
	}

	if c.OrderAPIURL == "" {
		return fmt.Errorf("ORDER_API_URL cannot be empty")
	}

	if _, err := NetworkByChainID(c.ChainID); err != nil {
		return fmt.Errorf("CHAIN_ID: %w", err)
	}

	if c.JournalMode != "postgres" && c.JournalMode != "console" {
		return fmt.Errorf("JOURNAL_MODE must be 'postgres' or 'console', got %q", c.JournalMode)
	}

	return nil
}

// Network returns the static contract table for the configured chain.
func (c *Config) Network() Network {
	network, _ := NetworkByChainID(c.ChainID)
	return network
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getUint64OrDefault(key string, defaultValue uint64) uint64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
