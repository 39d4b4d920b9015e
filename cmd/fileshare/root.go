package main

import (
	"github.com/spf13/cobra"

	"file-share-api/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	serve := newServeCmd(cfg)

	cmd := &cobra.Command{
		Use:           "fileshare",
		Short:         "File sharing API with expiring uploads",
		SilenceUsage:  true,
		SilenceErrors: true,
		// no subcommand starts the server
		RunE: serve.RunE,
	}

	cmd.Version = version

	cmd.AddCommand(
		serve,
		newMigrateCmd(cfg),
		newSweepCmd(cfg),
	)

	return cmd
}
