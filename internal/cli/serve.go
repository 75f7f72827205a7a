package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/app"
	"github.com/yungbote/coursecraft-backend/internal/data/db"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		err := a.Serve(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, cfg, err := app.Bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		dbs, err := db.Open(cfg.DB, log)
		if err != nil {
			return err
		}
		defer dbs.Close()
		if err := dbs.AutoMigrateAll(); err != nil {
			return err
		}
		printf(cmd, "schema up to date (%s)\n", dbs.Driver())
		return nil
	},
}
