package cli

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursecraft-backend/internal/app"
	"github.com/yungbote/coursecraft-backend/internal/clients/redis"
	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/events"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a course for a user and store it",
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")
		topic, _ := cmd.Flags().GetString("topic")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		chapters, _ := cmd.Flags().GetInt("chapters")
		lessons, _ := cmd.Flags().GetInt("lessons")
		if strings.TrimSpace(owner) == "" {
			return errors.New("--owner is required")
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			c, err := a.Services.Course.Generate(ctx, owner, coursegen.Params{
				Topic:             topic,
				Difficulty:        difficulty,
				ChapterCount:      chapters,
				LessonsPerChapter: lessons,
			})
			if err != nil {
				return err
			}
			printf(cmd, "created course %s %q\n", c.ID, c.Title)
			for i, ch := range c.Chapters {
				printf(cmd, "  %d. %s (%d lessons)\n", i+1, ch.Title, len(ch.Lessons))
			}
			return nil
		})
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print progression events published on Redis until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, cfg, err := app.Bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()
		if cfg.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is not set")
		}
		ctx := cmd.Context()
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		if err := redis.Subscribe(ctx, rdb, cfg.Redis.Channel, log, func(ev events.Event) {
			_ = enc.Encode(ev)
		}); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	},
}

func init() {
	generateCmd.Flags().String("owner", "", "user id that owns the course")
	generateCmd.Flags().String("topic", "", "course topic")
	generateCmd.Flags().String("difficulty", "beginner", "beginner, intermediate or advanced")
	generateCmd.Flags().Int("chapters", 0, "number of chapters (default 3)")
	generateCmd.Flags().Int("lessons", 0, "lessons per chapter (default 3)")
}
