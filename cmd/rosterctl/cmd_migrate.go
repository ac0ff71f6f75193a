package main

import (
	"github.com/BradenHooton/roster/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down|status>",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// goose reports progress and status at info level
			opts := *global
			if opts.logLevel != "debug" {
				opts.logLevel = "info"
			}
			logger := opts.logger(cmd.ErrOrStderr())

			db, err := opts.openDB(ctx, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Migrate(ctx, args[0])
		},
	}
}
