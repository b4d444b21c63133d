package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"powerbill/internal/log"
)

// DefaultSQLiteDSN is a shared in-memory database: bills survive for the life
// of the process only.
const DefaultSQLiteDSN = "file:powerbill?mode=memory&cache=shared"

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// AMQP (empty URL disables events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Admin credential, bcrypt hash
	AdminPasswordHash string

	// Optional TOML tariff file
	TariffFile string

	// Reminder scanner
	ReminderInterval time.Duration

	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		Port:        getEnv("PORT", "8082"),
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", DefaultSQLiteDSN),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "powerbill"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "bill_events"),

		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		TariffFile:        getEnv("TARIFF_FILE", ""),

		ReminderInterval: getEnvDuration("REMINDER_INTERVAL", time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// bcrypt hashes start with $2a$, $2b$ or $2y$
	if c.AdminPasswordHash != "" && !strings.HasPrefix(c.AdminPasswordHash, "$2") {
		errors = append(errors, "ADMIN_PASSWORD_HASH must be a bcrypt hash")
	}

	if c.TariffFile != "" {
		if _, err := os.Stat(c.TariffFile); err != nil {
			errors = append(errors, fmt.Sprintf("tariff file not readable: %v", err))
		}
	}

	if c.ReminderInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at least 1 second", c.ReminderInterval))
	} else if c.ReminderInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reminder interval %v: must be at most 24 hours", c.ReminderInterval))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// EventsEnabled reports whether bill events should be published.
func (c *Config) EventsEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
