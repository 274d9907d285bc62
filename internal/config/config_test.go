package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.ClientID = "client"
	cfg.ClientSecret = "secret"
	cfg.HomeLat = 51.5074
	cfg.HomeLon = -0.1278
	return cfg
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.ClientSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"latitude too low", func(c *Config) { c.HomeLat = -90.1 }, false},
		{"latitude too high", func(c *Config) { c.HomeLat = 90.1 }, false},
		{"longitude too low", func(c *Config) { c.HomeLon = -180.1 }, false},
		{"longitude too high", func(c *Config) { c.HomeLon = 180.1 }, false},
		{"radius at minimum", func(c *Config) { c.RadiusMiles = MinRadiusMiles }, true},
		{"radius below minimum", func(c *Config) { c.RadiusMiles = 0.05 }, false},
		{"radius at maximum", func(c *Config) { c.RadiusMiles = MaxRadiusMiles }, true},
		{"radius above maximum", func(c *Config) { c.RadiusMiles = 50.1 }, false},
		{"interval at minimum", func(c *Config) { c.PollIntervalMinutes = MinPollIntervalMinutes }, true},
		{"interval below minimum", func(c *Config) { c.PollIntervalMinutes = 4 }, false},
		{"interval at maximum", func(c *Config) { c.PollIntervalMinutes = MaxPollIntervalMinutes }, true},
		{"interval above maximum", func(c *Config) { c.PollIntervalMinutes = 721 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FUELWATCH_CLIENT_ID", "env-client")
	t.Setenv("FUELWATCH_RADIUS_MILES", "5.5")
	t.Setenv("FUELWATCH_POLL_MINUTES", "30")
	t.Setenv("FUELWATCH_INSTANCE_ID", "home")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, "env-client", cfg.ClientID)
	assert.Equal(t, 5.5, cfg.RadiusMiles)
	assert.Equal(t, 30, cfg.PollIntervalMinutes)
	assert.Equal(t, "home", cfg.InstanceID)
}
