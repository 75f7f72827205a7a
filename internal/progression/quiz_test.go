package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
)

var fixedNow = time.Date(2026, 4, 2, 12, 0, 0, 0, time.UTC)

// twoChapterCourse builds chapters of 2 and 1 lessons, each worth 10 XP.
func twoChapterCourse() *course.Course {
	return &course.Course{
		Title: "Go",
		Chapters: []course.Chapter{
			{Title: "Basics", Lessons: []course.Lesson{{Title: "Vars", XP: 10}, {Title: "Funcs", XP: 10}}},
			{Title: "Concurrency", Lessons: []course.Lesson{{Title: "Goroutines", XP: 10}}},
		},
	}
}

func TestEvaluateQuizBoundaries(t *testing.T) {
	cases := []struct {
		score, total int
		pct          int
		passed       bool
	}{
		{1, 2, 50, true},
		{49, 100, 49, false},
		{2, 3, 67, true},
		{0, 5, 0, false},
		{5, 5, 100, true},
	}
	for _, tc := range cases {
		got, err := EvaluateQuiz(tc.score, tc.total, 50)
		if err != nil {
			t.Fatalf("EvaluateQuiz(%d,%d): %v", tc.score, tc.total, err)
		}
		if got.Percentage != tc.pct || got.Passed != tc.passed {
			t.Fatalf("EvaluateQuiz(%d,%d): got=%+v want pct=%d passed=%v", tc.score, tc.total, got, tc.pct, tc.passed)
		}
	}
}

func TestEvaluateQuizRejectsBadInput(t *testing.T) {
	for _, in := range [][2]int{{1, 0}, {-1, 3}, {4, 3}} {
		if _, err := EvaluateQuiz(in[0], in[1], 50); !errors.Is(err, ErrInvalidQuiz) {
			t.Fatalf("EvaluateQuiz(%d,%d): expected ErrInvalidQuiz, got %v", in[0], in[1], err)
		}
	}
}

func TestApplyQuizPassNonLastLesson(t *testing.T) {
	c := twoChapterCourse()
	out, err := ApplyQuiz(DefaultConfig(), c, 0, 0, 3, 4, nil, fixedNow)
	if err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}
	if !out.LessonJustCompleted || out.ChapterJustCompleted || out.ChapterCompleted {
		t.Fatalf("unexpected completion flags: %+v", out)
	}
	if !out.NextLessonUnlocked || out.NextChapterUnlocked {
		t.Fatalf("only the next lesson in the chapter should unlock: %+v", out)
	}
	if IsLessonUnlocked(c, 1, 0) {
		t.Fatalf("next chapter must stay locked")
	}
	if out.Breakdown.Total() != 10 {
		t.Fatalf("expected base reward only, got %+v", out.Breakdown)
	}
	l := c.Lesson(0, 0)
	if !l.Completed || l.Attempts != 1 || l.QuizScore == nil || *l.QuizScore != 75 || !l.QuizPassed || l.CompletedAt == nil {
		t.Fatalf("lesson not updated: %+v", l)
	}
}

func TestApplyQuizRetakeKeepsBestScore(t *testing.T) {
	c := twoChapterCourse()
	cfg := DefaultConfig()
	if _, err := ApplyQuiz(cfg, c, 0, 0, 2, 5, nil, fixedNow); err != nil {
		t.Fatalf("failing attempt: %v", err)
	}
	if _, err := ApplyQuiz(cfg, c, 0, 0, 5, 5, nil, fixedNow); err != nil {
		t.Fatalf("perfect attempt: %v", err)
	}

	out, err := ApplyQuiz(cfg, c, 0, 0, 1, 5, nil, fixedNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("failing retake: %v", err)
	}
	if out.LessonJustCompleted || out.Breakdown.Total() != 0 {
		t.Fatalf("retake must not award: %+v", out)
	}
	if out.Quiz == nil || out.Quiz.Passed || out.Quiz.Percentage != 20 {
		t.Fatalf("retake result should report the attempt itself: %+v", out.Quiz)
	}
	l := c.Lesson(0, 0)
	if !l.Completed || !l.QuizPassed || l.Attempts != 3 || l.QuizScore == nil || *l.QuizScore != 100 {
		t.Fatalf("completed lesson lost its best result: %+v", l)
	}
}

func TestApplyQuizLastLessonCompletesChapter(t *testing.T) {
	c := twoChapterCourse()
	cfg := DefaultConfig()
	if _, err := ApplyQuiz(cfg, c, 0, 0, 1, 2, nil, fixedNow); err != nil {
		t.Fatalf("first lesson: %v", err)
	}
	out, err := ApplyQuiz(cfg, c, 0, 1, 10, 10, nil, fixedNow)
	if err != nil {
		t.Fatalf("last lesson: %v", err)
	}
	if !out.ChapterJustCompleted || !out.ChapterCompleted || !c.Chapters[0].Completed {
		t.Fatalf("chapter should be completed: %+v", out)
	}
	if !out.NextChapterUnlocked || !out.NextLessonUnlocked || !IsLessonUnlocked(c, 1, 0) {
		t.Fatalf("first lesson of next chapter should unlock: %+v", out)
	}
	want := XPBreakdown{Base: 10, Perfect: cfg.PerfectBonus, Excellent: cfg.ExcellentBonus, Chapter: cfg.ChapterBonus}
	if out.Breakdown != want {
		t.Fatalf("breakdown: got=%+v want=%+v", out.Breakdown, want)
	}
}

func TestApplyQuizRepeatPassAwardsNothing(t *testing.T) {
	c := twoChapterCourse()
	cfg := DefaultConfig()
	if _, err := ApplyQuiz(cfg, c, 0, 0, 4, 4, nil, fixedNow); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	out, err := ApplyQuiz(cfg, c, 0, 0, 4, 4, nil, fixedNow)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if out.LessonJustCompleted || out.Breakdown.Total() != 0 {
		t.Fatalf("repeat pass must not award xp: %+v", out)
	}
	if c.Lesson(0, 0).Attempts != 2 {
		t.Fatalf("attempts should still count: %d", c.Lesson(0, 0).Attempts)
	}
}

func TestApplyQuizFail(t *testing.T) {
	c := twoChapterCourse()
	out, err := ApplyQuiz(DefaultConfig(), c, 0, 0, 49, 100, nil, fixedNow)
	if err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}
	l := c.Lesson(0, 0)
	if out.Quiz.Passed || out.LessonCompleted || out.Breakdown.Total() != 0 || out.NextLessonUnlocked {
		t.Fatalf("fail must not complete or award: %+v", out)
	}
	if l.Completed || l.Attempts != 1 || l.QuizPassed || l.QuizScore == nil || *l.QuizScore != 49 {
		t.Fatalf("lesson after fail: %+v", l)
	}
}

func TestApplyQuizValidationLeavesCourseUntouched(t *testing.T) {
	cfg := DefaultConfig()
	cases := []struct {
		name    string
		ci, li  int
		score   int
		total   int
		reward  *int64
		wantErr error
	}{
		{"missing lesson", 0, 5, 1, 1, nil, ErrLessonNotFound},
		{"missing chapter", 4, 0, 1, 1, nil, ErrLessonNotFound},
		{"locked", 1, 0, 1, 1, nil, ErrLessonLocked},
		{"zero questions", 0, 0, 0, 0, nil, ErrInvalidQuiz},
		{"negative reward", 0, 0, 1, 1, ptr(int64(-1)), ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := twoChapterCourse()
			_, err := ApplyQuiz(cfg, c, tc.ci, tc.li, tc.score, tc.total, tc.reward, fixedNow)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			for ci := range c.Chapters {
				for li := range c.Chapters[ci].Lessons {
					l := c.Chapters[ci].Lessons[li]
					if l.Attempts != 0 || l.Completed || l.QuizScore != nil {
						t.Fatalf("lesson %d/%d mutated: %+v", ci, li, l)
					}
				}
			}
		})
	}
}

func TestApplyQuizRewardOverride(t *testing.T) {
	c := twoChapterCourse()
	out, err := ApplyQuiz(DefaultConfig(), c, 0, 0, 1, 2, ptr(int64(40)), fixedNow)
	if err != nil {
		t.Fatalf("ApplyQuiz: %v", err)
	}
	if out.Breakdown.Base != 40 {
		t.Fatalf("override not applied: %+v", out.Breakdown)
	}
}

func TestApplyLessonCompletionIsEdgeTriggered(t *testing.T) {
	c := twoChapterCourse()
	cfg := DefaultConfig()
	first, err := ApplyLessonCompletion(cfg, c, 0, 0, nil, fixedNow)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := ApplyLessonCompletion(cfg, c, 0, 0, nil, fixedNow)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Breakdown.Base != 10 || second.Breakdown.Total() != 0 || second.LessonJustCompleted {
		t.Fatalf("unexpected awards: first=%+v second=%+v", first.Breakdown, second.Breakdown)
	}
}

func TestApplyLessonCompletionWithoutUnlockEnforcement(t *testing.T) {
	c := twoChapterCourse()
	cfg := DefaultConfig()
	cfg.EnforceUnlock = false
	if _, err := ApplyLessonCompletion(cfg, c, 1, 0, nil, fixedNow); err != nil {
		t.Fatalf("expected locked lesson to be accepted: %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
