package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
	maxHistoryLimit         = 200
)

type XPService interface {
	// Ledger returns the caller's ledger, creating it on first access.
	Ledger(ctx context.Context, userID string) (*gamification.XPLedger, error)
	AddXP(ctx context.Context, in domainagg.AwardXPInput) (domainagg.AwardXPResult, error)
	UpdateStreak(ctx context.Context, userID string) (domainagg.RecordStreakResult, error)
	GrantAchievement(ctx context.Context, in domainagg.GrantAchievementInput) (domainagg.GrantAchievementResult, error)
	Leaderboard(ctx context.Context, limit, offset int) ([]progression.LeaderboardEntry, error)
	Rank(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]*gamification.XPEvent, error)

	SetXP(ctx context.Context, in domainagg.SetXPInput) (domainagg.AwardXPResult, error)
	RecomputeLevels(ctx context.Context) (int, error)
}

type xpService struct {
	log     *logger.Logger
	agg     domainagg.ProgressionAggregate
	ledgers repos.XPLedgerRepo
	journal repos.XPEventRepo
	emitter *events.Emitter
	metrics ProgressionMetrics
	now     func() time.Time
}

func NewXPService(
	baseLog *logger.Logger,
	agg domainagg.ProgressionAggregate,
	ledgers repos.XPLedgerRepo,
	journal repos.XPEventRepo,
	emitter *events.Emitter,
	metrics ProgressionMetrics,
) XPService {
	return &xpService{
		log:     baseLog.With("service", "XPService"),
		agg:     agg,
		ledgers: ledgers,
		journal: journal,
		emitter: emitter,
		metrics: orNoop(metrics),
		now:     time.Now,
	}
}

func (s *xpService) Ledger(ctx context.Context, userID string) (*gamification.XPLedger, error) {
	l, err := s.agg.Ledger(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return l, nil
}

func (s *xpService) AddXP(ctx context.Context, in domainagg.AwardXPInput) (domainagg.AwardXPResult, error) {
	ctx, span := observability.StartSpan(ctx, "xp.add", attribute.String("xp.source", in.Source))
	defer span.End()

	if strings.TrimSpace(in.Source) == "" {
		in.Source = gamification.SourceManual
	}
	res, err := s.agg.AwardXP(ctx, in)
	if err != nil {
		return res, mapError(err)
	}
	s.observe(&res.XP)
	s.emitter.Emit(ctx, xpEvents(res.Ledger.UserID, &res.XP)...)
	s.log.Debug("xp added", "user_id", res.Ledger.UserID, "amount", res.XP.Amount, "source", res.XP.Source, "leveled_up", res.XP.LeveledUp)
	return res, nil
}

func (s *xpService) UpdateStreak(ctx context.Context, userID string) (domainagg.RecordStreakResult, error) {
	res, err := s.agg.RecordStreak(ctx, domainagg.RecordStreakInput{UserID: userID, At: s.now()})
	if err != nil {
		return res, mapError(err)
	}
	if res.Streak.WasReset {
		s.metrics.IncStreakReset()
	}
	s.observe(res.XP)
	evs := streakEvent(res.Ledger.UserID, res.Streak, res.BonusXP)
	evs = append(evs, xpEvents(res.Ledger.UserID, res.XP)...)
	s.emitter.Emit(ctx, evs...)
	return res, nil
}

func (s *xpService) GrantAchievement(ctx context.Context, in domainagg.GrantAchievementInput) (domainagg.GrantAchievementResult, error) {
	if in.At.IsZero() {
		in.At = s.now()
	}
	res, err := s.agg.GrantAchievement(ctx, in)
	if err != nil {
		return res, mapError(err)
	}
	s.metrics.IncAchievement()
	s.observe(res.XP)
	evs := []events.Event{{
		Type:   events.AchievementEarned,
		UserID: res.Ledger.UserID,
		Data: map[string]any{
			"name":        res.Achievement.Name,
			"description": res.Achievement.Description,
			"xpReward":    res.Achievement.XPReward,
		},
	}}
	evs = append(evs, xpEvents(res.Ledger.UserID, res.XP)...)
	s.emitter.Emit(ctx, evs...)
	return res, nil
}

// ClampLeaderboardLimit applies the default and the upper bound.
func ClampLeaderboardLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}

func (s *xpService) Leaderboard(ctx context.Context, limit, offset int) ([]progression.LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.ledgers.ListTop(dbctx.Context{Ctx: ctx}, limit, offset)
	if err != nil {
		return nil, mapError(err)
	}
	return progression.RankLedgers(rows, offset), nil
}

func (s *xpService) Rank(ctx context.Context, userID string) (int, error) {
	rank, err := s.ledgers.RankOf(dbctx.Context{Ctx: ctx}, strings.TrimSpace(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, mapError(gamification.ErrLedgerNotFound)
	}
	if err != nil {
		return 0, mapError(err)
	}
	return rank, nil
}

func (s *xpService) History(ctx context.Context, userID string, limit int) ([]*gamification.XPEvent, error) {
	if limit <= 0 || limit > maxHistoryLimit {
		limit = 50
	}
	rows, err := s.journal.ListByUserID(dbctx.Context{Ctx: ctx}, strings.TrimSpace(userID), limit)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

func (s *xpService) SetXP(ctx context.Context, in domainagg.SetXPInput) (domainagg.AwardXPResult, error) {
	res, err := s.agg.SetXP(ctx, in)
	if err != nil {
		return res, mapError(err)
	}
	s.log.Info("xp corrected",
		"user_id", res.Ledger.UserID,
		"delta", res.XP.Amount,
		"total_xp", res.XP.TotalXP,
		"reason", in.Reason,
	)
	s.emitter.Emit(ctx, xpEvents(res.Ledger.UserID, &res.XP)...)
	return res, nil
}

func (s *xpService) RecomputeLevels(ctx context.Context) (int, error) {
	n, err := s.agg.RecomputeLevels(ctx)
	if err != nil {
		return n, mapError(err)
	}
	s.log.Info("levels recomputed", "changed", n)
	return n, nil
}
