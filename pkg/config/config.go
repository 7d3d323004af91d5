// Package config loads application configuration from TASKWALL_* environment
// variables with sane defaults for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration. Health and metrics are
// served on a separate port for probes.
type ServerConfig struct {
	Host            string
	Port            string
	HealthPort      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the SQL driver and connection string.
type DatabaseConfig struct {
	Driver   string // "sqlite3" or "postgres"
	DSN      string
	MaxConns int
}

// AuthConfig tunes the credential scheme.
type AuthConfig struct {
	BcryptCost int
}

// LoggingConfig holds log and maintenance settings.
type LoggingConfig struct {
	Level             string
	MetricsEnabled    bool
	IntegritySchedule string // cron expression for the ownership integrity sweep
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("TASKWALL_HOST", "0.0.0.0"),
			Port:            getEnv("TASKWALL_PORT", "8080"),
			HealthPort:      getEnv("TASKWALL_HEALTH_PORT", "9090"),
			ReadTimeout:     getEnvDuration("TASKWALL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("TASKWALL_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("TASKWALL_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("TASKWALL_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("TASKWALL_DB_DRIVER", "sqlite3"),
			DSN:      getEnv("TASKWALL_DB_DSN", "file:taskwall.db?_foreign_keys=on"),
			MaxConns: getEnvInt("TASKWALL_DB_MAX_CONNS", 10),
		},
		Auth: AuthConfig{
			BcryptCost: getEnvInt("TASKWALL_BCRYPT_COST", 0), // 0 means bcrypt.DefaultCost
		},
		Logging: LoggingConfig{
			Level:             getEnv("TASKWALL_LOG_LEVEL", "info"),
			MetricsEnabled:    getEnvBool("TASKWALL_METRICS_ENABLED", true),
			IntegritySchedule: getEnv("TASKWALL_INTEGRITY_SCHEDULE", "@hourly"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3 or postgres)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Auth.BcryptCost < 0 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 0 and 31")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
