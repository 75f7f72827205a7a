package aggregates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

type ProgressionAggregateDeps struct {
	Base BaseDeps

	Ledgers      repos.XPLedgerRepo
	Achievements repos.AchievementRepo
	Events       repos.XPEventRepo
	Courses      repos.CourseRepo

	Policy progression.Config
	// Location decides which calendar day an activity falls on. Nil means UTC.
	Location *time.Location
	Now      func() time.Time
}

type progressionAggregate struct {
	deps    ProgressionAggregateDeps
	creates singleflight.Group
}

func NewProgressionAggregate(deps ProgressionAggregateDeps) domainagg.ProgressionAggregate {
	deps.Base = deps.Base.withDefaults()
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &progressionAggregate{deps: deps}
}

func (a *progressionAggregate) Contract() domainagg.Contract {
	return domainagg.ProgressionAggregateContract
}

func (a *progressionAggregate) configured(op string, needCourses bool) error {
	if a.deps.Ledgers == nil || a.deps.Events == nil || a.deps.Achievements == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "progression aggregate repos not configured", nil)
	}
	if needCourses && a.deps.Courses == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "course repo not configured", nil)
	}
	return nil
}

func requireUser(op, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", domainagg.NewError(domainagg.CodeValidation, op, "missing user_id", nil)
	}
	return userID, nil
}

func (a *progressionAggregate) day(at time.Time) time.Time {
	if at.IsZero() {
		at = a.deps.Now()
	}
	return at.In(a.deps.Location)
}

func (a *progressionAggregate) Ledger(ctx context.Context, userID string) (*gamification.XPLedger, error) {
	const op = "Gamification.Progression.Ledger"
	userID, err := requireUser(op, userID)
	if err != nil {
		return nil, err
	}
	if err := a.configured(op, false); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := a.deps.Ledgers.GetByUserID(dbc, userID)
	if err != nil {
		return nil, MapError(op, err)
	}
	if existing != nil {
		return existing, nil
	}
	v, err, _ := a.creates.Do(userID, func() (interface{}, error) {
		return a.deps.Ledgers.GetOrCreate(dbc, userID)
	})
	if err != nil {
		return nil, MapError(op, err)
	}
	return v.(*gamification.XPLedger), nil
}

// lockLedger creates the ledger when missing and returns it under a row lock.
func (a *progressionAggregate) lockLedger(dbc dbctx.Context, userID string) (*gamification.XPLedger, error) {
	if _, err := a.deps.Ledgers.GetOrCreate(dbc, userID); err != nil {
		return nil, err
	}
	return a.deps.Ledgers.LockByUserID(dbc, userID)
}

func (a *progressionAggregate) saveLedger(dbc dbctx.Context, l *gamification.XPLedger) error {
	ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, gamification.XPLedger{}.TableName(), l.ID, l.Version, map[string]any{
		"total_xp":           l.TotalXP,
		"current_level":      l.CurrentLevel,
		"xp_to_next_level":   l.XPToNextLevel,
		"streak_current":     l.StreakCurrent,
		"streak_longest":     l.StreakLongest,
		"last_activity_date": l.LastActivityDate,
	})
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "xp ledger version changed"); err != nil {
		return err
	}
	l.Version++
	return nil
}

func (a *progressionAggregate) journal(dbc dbctx.Context, l *gamification.XPLedger, res progression.XPResult, meta map[string]any) error {
	var raw datatypes.JSON
	if len(meta) > 0 {
		b, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode xp event metadata: %w", err)
		}
		raw = datatypes.JSON(b)
	}
	_, err := a.deps.Events.Create(dbc, []*gamification.XPEvent{{
		LedgerID:    l.ID,
		UserID:      l.UserID,
		Amount:      res.Amount,
		Source:      res.Source,
		SourceID:    res.SourceID,
		LevelBefore: res.PreviousLevel,
		LevelAfter:  res.NewLevel,
		Metadata:    raw,
	}})
	return err
}

// award adds XP and journals it in the current transaction. It does not save the ledger.
func (a *progressionAggregate) award(dbc dbctx.Context, l *gamification.XPLedger, amount int64, source, sourceID string, meta map[string]any) (*progression.XPResult, error) {
	res, err := progression.AddXP(l, amount, source, sourceID)
	if err != nil {
		return nil, err
	}
	if err := a.journal(dbc, l, res, meta); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *progressionAggregate) AwardXP(ctx context.Context, in domainagg.AwardXPInput) (domainagg.AwardXPResult, error) {
	const op = "Gamification.Progression.AwardXP"
	var out domainagg.AwardXPResult
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return out, err
	}
	if in.Amount <= 0 {
		return out, MapError(op, fmt.Errorf("add %d xp: %w", in.Amount, progression.ErrInvalidAmount))
	}
	if err := a.configured(op, false); err != nil {
		return out, err
	}
	err = executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{LedgerKey(userID)}, func(dbc dbctx.Context) error {
		l, err := a.lockLedger(dbc, userID)
		if err != nil {
			return err
		}
		res, err := a.award(dbc, l, in.Amount, in.Source, in.SourceID, in.Metadata)
		if err != nil {
			return err
		}
		if err := a.saveLedger(dbc, l); err != nil {
			return err
		}
		out = domainagg.AwardXPResult{XP: *res, Ledger: l}
		return nil
	})
	return out, err
}

// applyStreak records activity on the ledger and awards the streak bonus when one is due.
func (a *progressionAggregate) applyStreak(dbc dbctx.Context, l *gamification.XPLedger, at time.Time) (progression.StreakUpdate, int64, *progression.XPResult, error) {
	today := a.day(at)
	u := progression.UpdateStreak(l, today)
	bonus := progression.StreakBonus(a.deps.Policy, u)
	if bonus <= 0 {
		return u, 0, nil, nil
	}
	res, err := a.award(dbc, l, bonus, gamification.SourceStreakBonus, progression.CivilDay(today).Format("2006-01-02"), map[string]any{
		"streak_current": u.Current,
	})
	if err != nil {
		return u, 0, nil, err
	}
	return u, bonus, res, nil
}

func (a *progressionAggregate) RecordStreak(ctx context.Context, in domainagg.RecordStreakInput) (domainagg.RecordStreakResult, error) {
	const op = "Gamification.Progression.RecordStreak"
	var out domainagg.RecordStreakResult
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return out, err
	}
	if err := a.configured(op, false); err != nil {
		return out, err
	}
	err = executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{LedgerKey(userID)}, func(dbc dbctx.Context) error {
		l, err := a.lockLedger(dbc, userID)
		if err != nil {
			return err
		}
		u, bonus, res, err := a.applyStreak(dbc, l, in.At)
		if err != nil {
			return err
		}
		if u.Continued {
			if err := a.saveLedger(dbc, l); err != nil {
				return err
			}
		}
		out = domainagg.RecordStreakResult{Streak: u, BonusXP: bonus, XP: res, Ledger: l}
		return nil
	})
	return out, err
}

func (a *progressionAggregate) GrantAchievement(ctx context.Context, in domainagg.GrantAchievementInput) (domainagg.GrantAchievementResult, error) {
	const op = "Gamification.Progression.GrantAchievement"
	var out domainagg.GrantAchievementResult
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return out, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return out, MapError(op, fmt.Errorf("missing name: %w", gamification.ErrInvalidAchievement))
	}
	if in.XPReward < 0 {
		return out, MapError(op, fmt.Errorf("xp reward %d: %w", in.XPReward, progression.ErrInvalidAmount))
	}
	if err := a.configured(op, false); err != nil {
		return out, err
	}
	earnedAt := in.At.UTC()
	if in.At.IsZero() {
		earnedAt = a.deps.Now().UTC()
	}
	err = executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{LedgerKey(userID)}, func(dbc dbctx.Context) error {
		l, err := a.lockLedger(dbc, userID)
		if err != nil {
			return err
		}
		if l.HasAchievement(name) {
			return fmt.Errorf("%q: %w", name, gamification.ErrAchievementExists)
		}
		row := &gamification.Achievement{
			LedgerID:    l.ID,
			UserID:      l.UserID,
			Name:        name,
			Description: strings.TrimSpace(in.Description),
			XPReward:    in.XPReward,
			EarnedAt:    earnedAt,
		}
		if _, err := a.deps.Achievements.Create(dbc, row); err != nil {
			return err
		}
		l.Achievements = append(l.Achievements, *row)

		var res *progression.XPResult
		if in.XPReward > 0 {
			res, err = a.award(dbc, l, in.XPReward, gamification.SourceAchievement, name, nil)
			if err != nil {
				return err
			}
		}
		if err := a.saveLedger(dbc, l); err != nil {
			return err
		}
		out = domainagg.GrantAchievementResult{Achievement: *row, XP: res, Ledger: l}
		return nil
	})
	return out, err
}

// lockCourse returns the caller's course under a row lock. Courses owned by someone else read as missing.
func (a *progressionAggregate) lockCourse(dbc dbctx.Context, userID string, courseID uuid.UUID) (*course.Course, error) {
	crs, err := a.deps.Courses.LockByID(dbc, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && crs.OwnerID != userID) {
		return nil, fmt.Errorf("course %s: %w", courseID, course.ErrCourseNotFound)
	}
	return crs, err
}

// persistCompletion writes the lesson and chapter rows touched by a completion and bumps the course version.
func (a *progressionAggregate) persistCompletion(dbc dbctx.Context, crs *course.Course, expectedVersion int, comp progression.Completion) error {
	lesson := crs.Lesson(comp.ChapterIndex, comp.LessonIndex)
	if lesson == nil {
		return InvariantError("completed lesson vanished from course graph")
	}
	if err := a.deps.Courses.UpdateLessonProgress(dbc, lesson); err != nil {
		return err
	}
	ch := crs.Chapters[comp.ChapterIndex]
	if err := a.deps.Courses.UpdateChapterCompleted(dbc, ch.ID, ch.Completed); err != nil {
		return err
	}
	ok, err := a.deps.Base.CASGuard.UpdateByVersion(dbc, course.Course{}.TableName(), crs.ID, expectedVersion, nil)
	if err != nil {
		return err
	}
	if err := RequireCASSuccess(ok, "course version changed"); err != nil {
		return err
	}
	crs.Version = expectedVersion + 1
	return nil
}

type completionApply func(cfg progression.Config, crs *course.Course) (progression.Completion, error)

// complete is the shared write path for quiz and lesson completions: it locks course and ledger,
// applies the course mutation, then awards XP and records the streak when the lesson was passed.
func (a *progressionAggregate) complete(ctx context.Context, op, userID string, courseID uuid.UUID, source string, at time.Time, apply completionApply) (domainagg.CompletionResult, error) {
	var out domainagg.CompletionResult
	if courseID == uuid.Nil {
		return out, MapError(op, fmt.Errorf("missing course_id: %w", course.ErrCourseNotFound))
	}
	if err := a.configured(op, true); err != nil {
		return out, err
	}
	keys := []string{CourseKey(courseID.String()), LedgerKey(userID)}
	err := executeContractWrite(ctx, a.deps.Base, a.Contract(), op, keys, func(dbc dbctx.Context) error {
		out = domainagg.CompletionResult{}
		crs, err := a.lockCourse(dbc, userID, courseID)
		if err != nil {
			return err
		}
		expected := crs.Version
		comp, err := apply(a.deps.Policy, crs)
		if err != nil {
			return err
		}
		if err := a.persistCompletion(dbc, crs, expected, comp); err != nil {
			return err
		}

		l, err := a.lockLedger(dbc, userID)
		if err != nil {
			return err
		}
		dirty := false
		lesson := crs.Lesson(comp.ChapterIndex, comp.LessonIndex)
		if total := comp.Breakdown.Total(); total > 0 {
			res, err := a.award(dbc, l, total, source, lesson.ID.String(), map[string]any{
				"course_id":  crs.ID.String(),
				"breakdown":  comp.Breakdown,
				"percentage": quizPercentage(comp),
			})
			if err != nil {
				return err
			}
			out.XP = res
			dirty = true
		}
		if comp.LessonCompleted && (comp.Quiz == nil || comp.Quiz.Passed) {
			u, bonus, res, err := a.applyStreak(dbc, l, at)
			if err != nil {
				return err
			}
			out.Streak, out.StreakBonus, out.StreakXP = u, bonus, res
			dirty = dirty || u.Continued
		} else {
			out.Streak = progression.StreakUpdate{Current: l.StreakCurrent, Longest: l.StreakLongest}
		}
		if dirty {
			if err := a.saveLedger(dbc, l); err != nil {
				return err
			}
		}
		out.Completion = comp
		out.Ledger = l
		out.Course = crs
		return nil
	})
	return out, err
}

func quizPercentage(comp progression.Completion) any {
	if comp.Quiz == nil {
		return nil
	}
	return comp.Quiz.Percentage
}

func (a *progressionAggregate) CompleteQuiz(ctx context.Context, in domainagg.CompleteQuizInput) (domainagg.CompletionResult, error) {
	const op = "Gamification.Progression.CompleteQuiz"
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return domainagg.CompletionResult{}, err
	}
	if _, err := progression.EvaluateQuiz(in.Score, in.TotalQuestions, a.deps.Policy.PassThreshold); err != nil {
		return domainagg.CompletionResult{}, MapError(op, err)
	}
	now := a.stamp(in.At)
	return a.complete(ctx, op, userID, in.CourseID, gamification.SourceQuizComplete, now, func(cfg progression.Config, crs *course.Course) (progression.Completion, error) {
		return progression.ApplyQuiz(cfg, crs, in.ChapterIndex, in.LessonIndex, in.Score, in.TotalQuestions, in.XPReward, now)
	})
}

func (a *progressionAggregate) CompleteLesson(ctx context.Context, in domainagg.CompleteLessonInput) (domainagg.CompletionResult, error) {
	const op = "Gamification.Progression.CompleteLesson"
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return domainagg.CompletionResult{}, err
	}
	now := a.stamp(in.At)
	return a.complete(ctx, op, userID, in.CourseID, gamification.SourceLessonComplete, now, func(cfg progression.Config, crs *course.Course) (progression.Completion, error) {
		return progression.ApplyLessonCompletion(cfg, crs, in.ChapterIndex, in.LessonIndex, in.XPReward, now)
	})
}

func (a *progressionAggregate) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return a.deps.Now()
	}
	return at
}

func (a *progressionAggregate) SetXP(ctx context.Context, in domainagg.SetXPInput) (domainagg.AwardXPResult, error) {
	const op = "Gamification.Progression.SetXP"
	var out domainagg.AwardXPResult
	userID, err := requireUser(op, in.UserID)
	if err != nil {
		return out, err
	}
	if in.Total < 0 {
		return out, MapError(op, fmt.Errorf("set xp to %d: %w", in.Total, progression.ErrInvalidAmount))
	}
	if err := a.configured(op, false); err != nil {
		return out, err
	}
	err = executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{LedgerKey(userID)}, func(dbc dbctx.Context) error {
		l, err := a.deps.Ledgers.LockByUserID(dbc, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s: %w", userID, gamification.ErrLedgerNotFound)
		}
		if err != nil {
			return err
		}
		res, err := progression.SetXP(l, in.Total)
		if err != nil {
			return err
		}
		if err := a.journal(dbc, l, res, map[string]any{"reason": strings.TrimSpace(in.Reason)}); err != nil {
			return err
		}
		if err := a.saveLedger(dbc, l); err != nil {
			return err
		}
		out = domainagg.AwardXPResult{XP: res, Ledger: l}
		return nil
	})
	return out, err
}

func (a *progressionAggregate) RecomputeLevels(ctx context.Context) (int, error) {
	const op = "Gamification.Progression.RecomputeLevels"
	if err := a.configured(op, false); err != nil {
		return 0, err
	}
	changed := 0
	after := ""
	for {
		ids, err := a.deps.Ledgers.ListUserIDsAfter(dbctx.Context{Ctx: ctx}, after, 200)
		if err != nil {
			return changed, MapError(op, err)
		}
		if len(ids) == 0 {
			return changed, nil
		}
		for _, userID := range ids {
			updated := false
			err := executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{LedgerKey(userID)}, func(dbc dbctx.Context) error {
				updated = false
				l, err := a.deps.Ledgers.LockByUserID(dbc, userID)
				if err != nil {
					return err
				}
				level, next := l.CurrentLevel, l.XPToNextLevel
				progression.Recompute(l)
				if level == l.CurrentLevel && next == l.XPToNextLevel {
					return nil
				}
				if err := a.saveLedger(dbc, l); err != nil {
					return err
				}
				updated = true
				return nil
			})
			if err != nil {
				return changed, err
			}
			if updated {
				changed++
			}
		}
		after = ids[len(ids)-1]
	}
}
