package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/app"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
)

var recomputeLevelsCmd = &cobra.Command{
	Use:   "recompute-levels",
	Short: "Rewrite derived level fields on every ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			n, err := a.Services.XP.RecomputeLevels(ctx)
			if err != nil {
				return err
			}
			printf(cmd, "%d ledgers updated\n", n)
			return nil
		})
	},
}

var setXPCmd = &cobra.Command{
	Use:   "set-xp",
	Short: "Set a user's total XP as an audited correction",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		total, _ := cmd.Flags().GetInt64("xp")
		reason, _ := cmd.Flags().GetString("reason")
		if strings.TrimSpace(user) == "" {
			return errors.New("--user is required")
		}
		if strings.TrimSpace(reason) == "" {
			return errors.New("--reason is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			res, err := a.Services.XP.SetXP(ctx, domainagg.SetXPInput{UserID: user, Total: total, Reason: reason})
			if err != nil {
				return err
			}
			printf(cmd, "%s: total_xp=%d level=%d (delta %+d)\n", user, res.Ledger.TotalXP, res.Ledger.CurrentLevel, res.XP.Amount)
			return nil
		})
	},
}

func init() {
	setXPCmd.Flags().String("user", "", "user id whose ledger is corrected")
	setXPCmd.Flags().Int64("xp", 0, "new total XP")
	setXPCmd.Flags().String("reason", "", "reason recorded in the XP journal")
}
