package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"file-share-api/config"
	"file-share-api/internal"
)

func newSweepCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one expiration pass and print its report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := newLogger(cfg.App.Env)
			if err != nil {
				return fmt.Errorf("cannot initialize zap logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			app, err := internal.NewApp(cmd.Context(), *cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			report, err := app.SweepOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
