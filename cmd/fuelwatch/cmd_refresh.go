package main

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func refreshCmd() *cobra.Command {
	var forceStations bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run a one-time refresh",
		Long:  "Runs a single refresh cycle and prints the resulting summary as JSON. Useful for testing credentials and configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return err
			}

			st, err := newStore(logger)
			if err != nil {
				return fmt.Errorf("opening state store: %w", err)
			}
			defer st.Close()

			coord := newCoordinator(st, nil, logger)
			if forceStations {
				coord.ForceStationsRefresh()
			}

			summary, err := coord.Refresh(cmd.Context())
			if err != nil {
				return fmt.Errorf("refreshing: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceStations, "force-stations", false, "Refetch the station list even when the cached set matches the configuration")

	return cmd
}
