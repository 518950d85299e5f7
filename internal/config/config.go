package config

import (
	"os"
	"strconv"
	"time"

	"gopower/internal"
	"gopower/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Power      PowerConfig
	Simulation SimulationConfig
	Metrics    MetricsConfig
	Log        LogConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	APIPort         string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory calculation store.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
}

// Enabled reports whether a PostgreSQL database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// PowerConfig holds calculator settings
type PowerConfig struct {
	ZAlpha          float64
	ConfidenceLevel float64 // when set, overrides ZAlpha
	DefaultPower    float64
}

// SimulationConfig holds Monte Carlo defaults
type SimulationConfig struct {
	Trials  int
	Workers int
	Seed    uint64
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string // ERROR, WARN, INFO or DEBUG
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:     *loadServerConfig(),
		Database:   *loadDatabaseConfig(),
		Power:      *loadPowerConfig(),
		Simulation: *loadSimulationConfig(),
		Metrics:    *loadMetricsConfig(),
		Log:        LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "INFO")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		APIPort:         getEnvOrDefault("API_PORT", "8081"),
		GinMode:         getEnvOrDefault("GIN_MODE", "release"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:          getEnvOrDefault("DATABASE_URL", ""),
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
	}
}

func loadPowerConfig() *PowerConfig {
	return &PowerConfig{
		ZAlpha:          getEnvFloatOrDefault("POWER_Z_ALPHA", 1.96),
		ConfidenceLevel: getEnvFloatOrDefault("POWER_CONFIDENCE_LEVEL", 0),
		DefaultPower:    getEnvFloatOrDefault("POWER_DEFAULT_LEVEL", 0.8),
	}
}

func loadSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		Trials:  getEnvIntOrDefault("SIM_TRIALS", 2000),
		Workers: getEnvIntOrDefault("SIM_WORKERS", 4),
		Seed:    uint64(getEnvIntOrDefault("SIM_SEED", 42)),
	}
}

func loadMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
	}
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if config.Power.ZAlpha <= 0 {
		return errors.ConfigInvalid("POWER_Z_ALPHA must be positive")
	}
	if cl := config.Power.ConfidenceLevel; cl != 0 && (cl <= 0 || cl >= 1) {
		return errors.ConfigInvalid("POWER_CONFIDENCE_LEVEL must be in (0,1)")
	}
	if dp := config.Power.DefaultPower; dp <= 0 || dp >= 1 {
		return errors.ConfigInvalid("POWER_DEFAULT_LEVEL must be in (0,1)")
	}
	if config.Simulation.Trials <= 0 {
		return errors.ConfigInvalid("SIM_TRIALS must be positive")
	}
	if config.Simulation.Workers <= 0 {
		return errors.ConfigInvalid("SIM_WORKERS must be positive")
	}
	if _, ok := internal.ParseLogLevel(config.Log.Level); !ok {
		return errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
