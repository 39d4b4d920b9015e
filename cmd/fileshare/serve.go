package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"file-share-api/config"
	"file-share-api/internal"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the expiration sweeper and the event workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := newLogger(cfg.App.Env)
			if err != nil {
				return fmt.Errorf("cannot initialize zap logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			if migrateFirst {
				if err = internal.Migrate(*cfg, logger); err != nil {
					return err
				}
			}

			app, err := internal.NewApp(cmd.Context(), *cfg, logger)
			if err != nil {
				logger.Error("init app failed", zap.Error(err))
				return err
			}
			defer app.Close()

			app.InitControllers()

			return app.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply database migrations before starting")

	return cmd
}
