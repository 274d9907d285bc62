// Package main provides the entry point for the fuel price watcher CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fuelwatch/fuelwatch/internal/config"
	"github.com/fuelwatch/fuelwatch/internal/coordinator"
	"github.com/fuelwatch/fuelwatch/internal/fuelfinder"
	"github.com/fuelwatch/fuelwatch/internal/metrics"
	"github.com/fuelwatch/fuelwatch/internal/store"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
	// BuildDate is set at build time.
	BuildDate = "unknown"
)

var cfg *config.Config

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	rootCmd := &cobra.Command{
		Use:   "fuelwatch",
		Short: "Fuel Watch - Track UK fuel prices around your home",
		Long: `Fuel Watch is a service that polls the UK Government Fuel Finder API for
fuel stations near a configured location and keeps an incrementally updated
view of their E10, E5 and diesel prices.

Features:
  - Station discovery within a configurable radius of home
  - Incremental price polling with persistent caching
  - Cheapest-station summary per fuel type
  - Prometheus metrics endpoint
  - Status and summary endpoints for operational visibility`,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "Fuel Finder API client id")
	rootCmd.PersistentFlags().StringVar(&cfg.ClientSecret, "client-secret", cfg.ClientSecret, "Fuel Finder API client secret")
	rootCmd.PersistentFlags().Float64Var(&cfg.HomeLat, "lat", cfg.HomeLat, "Home latitude")
	rootCmd.PersistentFlags().Float64Var(&cfg.HomeLon, "lon", cfg.HomeLon, "Home longitude")
	rootCmd.PersistentFlags().Float64Var(&cfg.RadiusMiles, "radius-miles", cfg.RadiusMiles, "Search radius in miles")
	rootCmd.PersistentFlags().IntVar(&cfg.PollIntervalMinutes, "poll-minutes", cfg.PollIntervalMinutes, "Minutes between refresh cycles")
	rootCmd.PersistentFlags().StringVar(&cfg.InstanceID, "instance", cfg.InstanceID, "Instance identifier for state scoping")
	rootCmd.PersistentFlags().StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Fuel Finder API base URL")
	rootCmd.PersistentFlags().StringVar(&cfg.StateFile, "state-file", cfg.StateFile, "Path of the JSON state file")
	rootCmd.PersistentFlags().StringVar(&cfg.PostgresDSN, "postgres-dsn", cfg.PostgresDSN, "Postgres connection string (overrides the state file)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	rootCmd.PersistentFlags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address for /metrics, /status, /summary")

	// Add subcommands
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger() zerolog.Logger {
	var logger zerolog.Logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger
}

// newStore selects the persistence backend: Postgres when a DSN is set,
// otherwise the JSON state file.
func newStore(logger zerolog.Logger) (store.Store, error) {
	if cfg.PostgresDSN != "" {
		return store.NewPostgres(cfg.PostgresDSN, cfg.InstanceID, logger)
	}
	return store.NewFileStore(cfg.StateFile, logger), nil
}

func newCoordinator(st store.Store, m *metrics.Metrics, logger zerolog.Logger) *coordinator.Coordinator {
	api := fuelfinder.New(cfg.BaseURL, logger)
	return coordinator.New(cfg, api, st, clockwork.NewRealClock(), m, logger)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Fuel Watch\n")
			fmt.Printf("  Version:    %s\n", Version)
			fmt.Printf("  Commit:     %s\n", Commit)
			fmt.Printf("  Build Date: %s\n", BuildDate)
		},
	}
}
