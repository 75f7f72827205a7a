package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type ProgressService interface {
	CompleteQuiz(ctx context.Context, in domainagg.CompleteQuizInput) (domainagg.CompletionResult, error)
	CompleteLesson(ctx context.Context, in domainagg.CompleteLessonInput) (domainagg.CompletionResult, error)
}

type progressService struct {
	log     *logger.Logger
	agg     domainagg.ProgressionAggregate
	emitter *events.Emitter
	metrics ProgressionMetrics
	now     func() time.Time
}

func NewProgressService(baseLog *logger.Logger, agg domainagg.ProgressionAggregate, emitter *events.Emitter, metrics ProgressionMetrics) ProgressService {
	return &progressService{
		log:     baseLog.With("service", "ProgressService"),
		agg:     agg,
		emitter: emitter,
		metrics: orNoop(metrics),
		now:     time.Now,
	}
}

func (s *progressService) CompleteQuiz(ctx context.Context, in domainagg.CompleteQuizInput) (domainagg.CompletionResult, error) {
	ctx, span := observability.StartSpan(ctx, "progress.complete_quiz",
		attribute.String("course.id", in.CourseID.String()),
		attribute.Int("chapter.index", in.ChapterIndex),
		attribute.Int("lesson.index", in.LessonIndex),
	)
	defer span.End()

	if in.At.IsZero() {
		in.At = s.now()
	}
	res, err := s.agg.CompleteQuiz(ctx, in)
	if err != nil {
		span.RecordError(err)
		return res, mapError(err)
	}
	if q := res.Completion.Quiz; q != nil {
		s.metrics.ObserveQuiz(q.Passed, q.Percentage)
		span.SetAttributes(attribute.Int("quiz.percentage", q.Percentage), attribute.Bool("quiz.passed", q.Passed))
	}
	s.afterCompletion(ctx, in.UserID, res)
	return res, nil
}

func (s *progressService) CompleteLesson(ctx context.Context, in domainagg.CompleteLessonInput) (domainagg.CompletionResult, error) {
	ctx, span := observability.StartSpan(ctx, "progress.complete_lesson",
		attribute.String("course.id", in.CourseID.String()),
		attribute.Int("chapter.index", in.ChapterIndex),
		attribute.Int("lesson.index", in.LessonIndex),
	)
	defer span.End()

	if in.At.IsZero() {
		in.At = s.now()
	}
	res, err := s.agg.CompleteLesson(ctx, in)
	if err != nil {
		span.RecordError(err)
		return res, mapError(err)
	}
	s.afterCompletion(ctx, in.UserID, res)
	return res, nil
}

// afterCompletion records metrics and publishes events for a committed completion.
func (s *progressService) afterCompletion(ctx context.Context, userID string, res domainagg.CompletionResult) {
	if res.Ledger != nil {
		userID = res.Ledger.UserID
	}
	c := res.Completion
	var evs []events.Event
	if res.XP != nil {
		s.metrics.ObserveXP(res.XP.Source, res.XP.Amount, res.XP.LeveledUp)
		evs = append(evs, xpEvents(userID, res.XP)...)
	}
	if c.ChapterJustCompleted {
		s.metrics.IncChapterCompleted()
		data := map[string]any{
			"chapterIndex":        c.ChapterIndex,
			"nextChapterUnlocked": c.NextChapterUnlocked,
		}
		if res.Course != nil {
			data["courseId"] = res.Course.ID.String()
		}
		evs = append(evs, events.Event{Type: events.ChapterCompleted, UserID: userID, Data: data})
	}
	if res.Streak.WasReset {
		s.metrics.IncStreakReset()
	}
	evs = append(evs, streakEvent(userID, res.Streak, res.StreakBonus)...)
	if res.StreakXP != nil {
		s.metrics.ObserveXP(res.StreakXP.Source, res.StreakXP.Amount, res.StreakXP.LeveledUp)
		evs = append(evs, xpEvents(userID, res.StreakXP)...)
	}
	s.emitter.Emit(ctx, evs...)

	s.log.Debug("completion recorded",
		"user_id", userID,
		"chapter", c.ChapterIndex,
		"lesson", c.LessonIndex,
		"xp_awarded", res.XPAwarded(),
		"lesson_just_completed", c.LessonJustCompleted,
		"chapter_just_completed", c.ChapterJustCompleted,
	)
}
