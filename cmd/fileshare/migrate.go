package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"file-share-api/config"
	"file-share-api/internal"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cfg.App.Env)
			if err != nil {
				return fmt.Errorf("cannot initialize zap logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			return internal.Migrate(*cfg, logger)
		},
	}
}
