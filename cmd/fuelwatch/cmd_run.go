package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/fuelwatch/fuelwatch/internal/http"
	"github.com/fuelwatch/fuelwatch/internal/metrics"
	"github.com/fuelwatch/fuelwatch/internal/scheduler"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the continuous watcher service",
		Long:  "Starts the fuel price watcher with an internal scheduler that refreshes on the configured interval.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Str("instance", cfg.InstanceID).
				Float64("radiusMiles", cfg.RadiusMiles).
				Int("pollMinutes", cfg.PollIntervalMinutes).
				Msg("starting fuel price watcher")

			// Open the persistence backend
			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("opening state store: %w", err)
			}
			defer st.Close()

			// Create coordinator with metrics
			reg := prometheus.NewRegistry()
			m := metrics.New(reg)
			coord := newCoordinator(st, m, logger)

			// Publish cached data before the first network round-trip
			coord.InitializeFromCache(cmd.Context())

			// Create scheduler
			interval := time.Duration(cfg.PollIntervalMinutes) * time.Minute
			sched := scheduler.New(coord, interval, clockwork.NewRealClock(), logger)

			// Create HTTP server
			httpServer := http.NewServer(cfg.HTTPAddr, coord, sched, st, cfg.InstanceID, reg, logger)

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine
			go func() {
				sched.Start(ctx)
			}()

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	return cmd
}
