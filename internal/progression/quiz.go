package progression

import (
	"fmt"
	"math"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
)

type QuizResult struct {
	Percentage int  `json:"percentage"`
	Passed     bool `json:"passed"`
}

// EvaluateQuiz scores a quiz. percentage = round(score/total*100), half away from zero.
func EvaluateQuiz(score, totalQuestions, passThreshold int) (QuizResult, error) {
	if totalQuestions <= 0 {
		return QuizResult{}, fmt.Errorf("total questions %d: %w", totalQuestions, ErrInvalidQuiz)
	}
	if score < 0 || score > totalQuestions {
		return QuizResult{}, fmt.Errorf("score %d of %d: %w", score, totalQuestions, ErrInvalidQuiz)
	}
	pct := int(math.Round(float64(score) / float64(totalQuestions) * 100))
	return QuizResult{Percentage: pct, Passed: pct >= passThreshold}, nil
}

type XPBreakdown struct {
	Base      int64 `json:"base"`
	Perfect   int64 `json:"perfect"`
	Excellent int64 `json:"excellent"`
	Chapter   int64 `json:"chapter"`
}

func (b XPBreakdown) Total() int64 {
	return b.Base + b.Perfect + b.Excellent + b.Chapter
}

// Completion is the course-side outcome of a quiz or lesson completion. XP is only non-zero when
// LessonJustCompleted is true.
type Completion struct {
	ChapterIndex         int         `json:"chapter_index"`
	LessonIndex          int         `json:"lesson_index"`
	Quiz                 *QuizResult `json:"quiz,omitempty"`
	Attempts             int         `json:"attempts"`
	LessonCompleted      bool        `json:"lesson_completed"`
	LessonJustCompleted  bool        `json:"lesson_just_completed"`
	ChapterCompleted     bool        `json:"chapter_completed"`
	ChapterJustCompleted bool        `json:"chapter_just_completed"`
	NextLessonUnlocked   bool        `json:"next_lesson_unlocked"`
	NextChapterUnlocked  bool        `json:"next_chapter_unlocked"`
	Breakdown            XPBreakdown `json:"breakdown"`
}

func locate(cfg Config, c *course.Course, ci, li int) (*course.Lesson, error) {
	lesson := c.Lesson(ci, li)
	if lesson == nil {
		return nil, fmt.Errorf("chapter %d lesson %d: %w", ci, li, ErrLessonNotFound)
	}
	if cfg.EnforceUnlock && !lesson.Completed && !IsLessonUnlocked(c, ci, li) {
		return nil, fmt.Errorf("chapter %d lesson %d: %w", ci, li, ErrLessonLocked)
	}
	return lesson, nil
}

func baseReward(cfg Config, lesson *course.Lesson, override *int64) (int64, error) {
	if override != nil {
		if *override < 0 {
			return 0, fmt.Errorf("xp reward %d: %w", *override, ErrInvalidAmount)
		}
		return *override, nil
	}
	if lesson.XP > 0 {
		return lesson.XP, nil
	}
	return cfg.DefaultLessonXP, nil
}

// ApplyQuiz evaluates a quiz submission for the lesson at (ci, li) and mutates the course.
// Every validation happens before the first write, so an error leaves c unchanged.
func ApplyQuiz(cfg Config, c *course.Course, ci, li, score, totalQuestions int, xpReward *int64, now time.Time) (Completion, error) {
	lesson, err := locate(cfg, c, ci, li)
	if err != nil {
		return Completion{}, err
	}
	result, err := EvaluateQuiz(score, totalQuestions, cfg.PassThreshold)
	if err != nil {
		return Completion{}, err
	}
	base, err := baseReward(cfg, lesson, xpReward)
	if err != nil {
		return Completion{}, err
	}

	pct := result.Percentage
	lesson.Attempts++
	if lesson.QuizScore == nil || pct > *lesson.QuizScore {
		lesson.QuizScore = &pct
	}
	// A pass is never revoked by a later attempt.
	lesson.QuizPassed = lesson.QuizPassed || result.Passed

	out := Completion{ChapterIndex: ci, LessonIndex: li, Quiz: &result}
	if result.Passed && !lesson.Completed {
		markCompleted(lesson, now)
		out.LessonJustCompleted = true
		out.ChapterJustCompleted = UpdateChapterCompletion(c, ci)
		out.Breakdown.Base = base
		if pct == 100 {
			out.Breakdown.Perfect = cfg.PerfectBonus
		}
		if pct >= cfg.ExcellentAt {
			out.Breakdown.Excellent = cfg.ExcellentBonus
		}
		if out.ChapterJustCompleted {
			out.Breakdown.Chapter = cfg.ChapterBonus
		}
	}
	fillUnlocks(c, &out, lesson)
	return out, nil
}

// ApplyLessonCompletion marks a lesson completed without a quiz. Repeat calls are no-ops apart
// from reporting the current state.
func ApplyLessonCompletion(cfg Config, c *course.Course, ci, li int, xpReward *int64, now time.Time) (Completion, error) {
	lesson, err := locate(cfg, c, ci, li)
	if err != nil {
		return Completion{}, err
	}
	base, err := baseReward(cfg, lesson, xpReward)
	if err != nil {
		return Completion{}, err
	}
	out := Completion{ChapterIndex: ci, LessonIndex: li}
	if !lesson.Completed {
		markCompleted(lesson, now)
		out.LessonJustCompleted = true
		out.ChapterJustCompleted = UpdateChapterCompletion(c, ci)
		out.Breakdown.Base = base
		if out.ChapterJustCompleted {
			out.Breakdown.Chapter = cfg.ChapterBonus
		}
	}
	fillUnlocks(c, &out, lesson)
	return out, nil
}

func markCompleted(lesson *course.Lesson, now time.Time) {
	ts := now.UTC()
	lesson.Completed = true
	lesson.CompletedAt = &ts
}

func fillUnlocks(c *course.Course, out *Completion, lesson *course.Lesson) {
	out.Attempts = lesson.Attempts
	out.LessonCompleted = lesson.Completed
	out.ChapterCompleted = IsChapterComplete(c, out.ChapterIndex)
	if nci, nli, ok := NextLesson(c, out.ChapterIndex, out.LessonIndex); ok && lesson.Completed {
		out.NextLessonUnlocked = IsLessonUnlocked(c, nci, nli)
	}
	out.NextChapterUnlocked = out.ChapterIndex+1 < len(c.Chapters) && IsChapterUnlocked(c, out.ChapterIndex+1)
}
