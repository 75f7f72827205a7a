package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "coursecraft",
	Short:         "Course generation and progression backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeLevelsCmd)
	rootCmd.AddCommand(setXPCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(eventsCmd)
}

// withApp bootstraps the full application for a one-shot command and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	log, cfg, err := app.Bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
