// Package config provides configuration structures and loading for the fuel price watcher.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrInvalid indicates a missing or out-of-range configuration value.
// Configuration errors fail fast and are never retried.
var ErrInvalid = errors.New("invalid configuration")

// Validated ranges for the geographic and polling settings.
const (
	MinRadiusMiles         = 0.1
	MaxRadiusMiles         = 50.0
	MinPollIntervalMinutes = 5
	MaxPollIntervalMinutes = 720
	DefaultRadiusMiles     = 10.0
	DefaultPollMinutes     = 15
)

// UK geographical bounds. The full latitude/longitude ranges are accepted,
// these are published for stricter front-end validation.
const (
	UKLatMin = 49.9
	UKLatMax = 60.9
	UKLonMin = -8.65
	UKLonMax = 1.77
)

// Config holds all configuration for the fuel price watcher.
type Config struct {
	// OAuth client credentials for the Fuel Finder API
	ClientID     string
	ClientSecret string
	// Home coordinate in decimal degrees
	HomeLat float64
	HomeLon float64
	// Station search radius in statute miles
	RadiusMiles float64
	// Poll interval in minutes
	PollIntervalMinutes int
	// Instance identifier, used to key persisted state
	InstanceID string
	// Fuel Finder base URL (override for testing)
	BaseURL string
	// State file path for the file-backed store
	StateFile string
	// PostgreSQL connection string; when set, state is stored in Postgres
	PostgresDSN string
	// Log level (debug, info, warn, error)
	LogLevel string
	// Log format (json, console)
	LogFormat string
	// HTTP server address
	HTTPAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		RadiusMiles:         DefaultRadiusMiles,
		PollIntervalMinutes: DefaultPollMinutes,
		InstanceID:          "default",
		BaseURL:             "https://www.fuel-finder.service.gov.uk",
		StateFile:           "fuelwatch_state.json",
		LogLevel:            "info",
		LogFormat:           "json",
		HTTPAddr:            ":8080",
	}
}

// LoadFromEnv loads configuration from environment variables.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("FUELWATCH_CLIENT_ID"); v != "" {
		c.ClientID = v
	}
	if v := os.Getenv("FUELWATCH_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}
	if v := os.Getenv("FUELWATCH_HOME_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HomeLat = f
		}
	}
	if v := os.Getenv("FUELWATCH_HOME_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.HomeLon = f
		}
	}
	if v := os.Getenv("FUELWATCH_RADIUS_MILES"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RadiusMiles = f
		}
	}
	if v := os.Getenv("FUELWATCH_POLL_MINUTES"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			c.PollIntervalMinutes = i
		}
	}
	if v := os.Getenv("FUELWATCH_INSTANCE_ID"); v != "" {
		c.InstanceID = v
	}
	if v := os.Getenv("FUELWATCH_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("FUELWATCH_STATE_FILE"); v != "" {
		c.StateFile = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
}

// Validate checks that all required fields are present and within range.
func (c *Config) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("%w: client id and secret are required", ErrInvalid)
	}
	if c.HomeLat < -90 || c.HomeLat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalid, c.HomeLat)
	}
	if c.HomeLon < -180 || c.HomeLon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalid, c.HomeLon)
	}
	if c.RadiusMiles < MinRadiusMiles || c.RadiusMiles > MaxRadiusMiles {
		return fmt.Errorf("%w: radius %v out of range [%v, %v] miles",
			ErrInvalid, c.RadiusMiles, MinRadiusMiles, MaxRadiusMiles)
	}
	if c.PollIntervalMinutes < MinPollIntervalMinutes || c.PollIntervalMinutes > MaxPollIntervalMinutes {
		return fmt.Errorf("%w: poll interval %d out of range [%d, %d] minutes",
			ErrInvalid, c.PollIntervalMinutes, MinPollIntervalMinutes, MaxPollIntervalMinutes)
	}
	return nil
}
