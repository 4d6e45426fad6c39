package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"challenger/database"
	"challenger/models"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL      string
	DatabaseName     string
	StatementTimeout time.Duration

	// HTTP configuration
	HTTPAddr  string
	JWTSecret string
	JWTIssuer string

	// Match configuration
	MinStakeAmount        int64           // Smallest stake accepted when creating a match
	MaxTeamSize           int             // Largest team size for team matches
	PlatformFeePercentage decimal.Decimal // Default fee taken from the pot at settlement

	// Break-glass staff access
	EmergencyAdminEmails []string

	// Reconciliation configuration
	ReconciliationInterval time.Duration // Zero disables the scheduled auditor
	ReconciliationAutoFix  bool

	// Event fan-out
	NATSServers      string // Empty disables NATS publishing
	DiscordToken     string // Empty disables the Discord notifier
	DiscordChannelID string

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
	mu       sync.RWMutex
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// Tests may install an instance with SetTestConfig
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

// GetDatabaseURL combines the base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// SetTestConfig replaces the global configuration, for tests only
func SetTestConfig(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = cfg
}

// ResetConfig clears the global configuration so the next Get reloads it
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig returns a configuration with defaults suitable for tests
func NewTestConfig() *Config {
	return &Config{
		StatementTimeout:         30 * time.Second,
		HTTPAddr:                 ":0",
		JWTSecret:                "test-secret",
		JWTIssuer:                "arena-test",
		MinStakeAmount:           100,
		MaxTeamSize:              5,
		PlatformFeePercentage:    decimal.NewFromInt(5),
		OTelEnabled:              false,
		OTelExporterType:         "none",
		OTelServiceName:          "arena",
		OTelExportIntervalMillis: 60000,
		LogLevel:                 "debug",
		LogFormat:                "text",
		Environment:              "test",
	}
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// .env is optional; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr:  getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: getEnvWithDefault("JWT_ISSUER", "arena"),

		// Match settings with defaults
		MinStakeAmount:        100,
		MaxTeamSize:           5,
		PlatformFeePercentage: decimal.NewFromInt(5),
		StatementTimeout:      30 * time.Second,

		ReconciliationInterval: time.Hour,
		ReconciliationAutoFix:  os.Getenv("RECONCILIATION_AUTO_FIX") == "true",

		// Event fan-out
		NATSServers:      os.Getenv("NATS_SERVERS"),
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "arena"),
		OTelExportIntervalMillis: 60000,

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "text"),

		// Environment
		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	// Override defaults if environment variables are set
	if stake := os.Getenv("MIN_STAKE_AMOUNT"); stake != "" {
		parsed, err := strconv.ParseInt(stake, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("MIN_STAKE_AMOUNT must be a positive integer, got %q", stake)
		}
		config.MinStakeAmount = parsed
	}
	if size := os.Getenv("MAX_TEAM_SIZE"); size != "" {
		if parsed, err := strconv.Atoi(size); err == nil && parsed > 0 {
			config.MaxTeamSize = parsed
		}
	}
	if fee := os.Getenv("PLATFORM_FEE_PERCENTAGE"); fee != "" {
		parsed, err := decimal.NewFromString(fee)
		if err != nil {
			return nil, fmt.Errorf("invalid PLATFORM_FEE_PERCENTAGE %q: %w", fee, err)
		}
		config.PlatformFeePercentage = parsed
	}
	if !models.ValidFeePercentage(config.PlatformFeePercentage) {
		return nil, fmt.Errorf("PLATFORM_FEE_PERCENTAGE must be in [0, 100) with at most %d decimal places, got %s",
			models.FeePercentageScale, config.PlatformFeePercentage)
	}
	if timeout := os.Getenv("DB_STATEMENT_TIMEOUT"); timeout != "" {
		if parsed, err := time.ParseDuration(timeout); err == nil {
			config.StatementTimeout = parsed
		}
	}
	if interval := os.Getenv("RECONCILIATION_INTERVAL"); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid RECONCILIATION_INTERVAL %q: %w", interval, err)
		}
		config.ReconciliationInterval = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Parse break-glass emails
	if emails := os.Getenv("EMERGENCY_ADMIN_EMAILS"); emails != "" {
		for _, email := range strings.Split(emails, ",") {
			email = strings.ToLower(strings.TrimSpace(email))
			if email != "" {
				config.EmergencyAdminEmails = append(config.EmergencyAdminEmails, email)
			}
		}
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	}

	return config, nil
}

// ConfigureLogging applies the configured level and format to logrus
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// IsEmergencyAdmin reports whether email is on the break-glass allowlist
func (c *Config) IsEmergencyAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	for _, allowed := range c.EmergencyAdminEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
