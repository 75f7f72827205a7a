package progression

import (
	"testing"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
)

func TestUnlockDerivation(t *testing.T) {
	c := twoChapterCourse()

	if !IsLessonUnlocked(c, 0, 0) {
		t.Fatalf("first lesson of first chapter is always unlocked")
	}
	if IsLessonUnlocked(c, 0, 1) || IsLessonUnlocked(c, 1, 0) {
		t.Fatalf("nothing else should be unlocked on a fresh course")
	}
	if !IsChapterUnlocked(c, 0) || IsChapterUnlocked(c, 1) {
		t.Fatalf("only the first chapter starts unlocked")
	}
	if IsLessonUnlocked(c, 3, 0) || IsLessonUnlocked(c, 0, -1) {
		t.Fatalf("out of range positions are never unlocked")
	}

	c.Chapters[0].Lessons[0].Completed = true
	if !IsLessonUnlocked(c, 0, 1) {
		t.Fatalf("completing a lesson unlocks its successor")
	}
	c.Chapters[0].Lessons[1].Completed = true
	if !IsChapterUnlocked(c, 1) || !IsLessonUnlocked(c, 1, 0) {
		t.Fatalf("completing a chapter unlocks the next chapter")
	}
}

func TestUpdateChapterCompletionEdge(t *testing.T) {
	c := twoChapterCourse()
	c.Chapters[0].Lessons[0].Completed = true
	if UpdateChapterCompletion(c, 0) {
		t.Fatalf("chapter is not complete yet")
	}
	c.Chapters[0].Lessons[1].Completed = true
	if !UpdateChapterCompletion(c, 0) {
		t.Fatalf("expected the completing call to report true")
	}
	if UpdateChapterCompletion(c, 0) {
		t.Fatalf("second call must not report completion again")
	}
	if UpdateChapterCompletion(c, 9) {
		t.Fatalf("out of range chapter")
	}
}

func TestEmptyChapterNeverCompletes(t *testing.T) {
	c := &course.Course{Chapters: []course.Chapter{{Title: "empty"}}}
	if IsChapterComplete(c, 0) || UpdateChapterCompletion(c, 0) {
		t.Fatalf("empty chapter must not complete")
	}
}

func TestNextLessonAndProgress(t *testing.T) {
	c := twoChapterCourse()
	if ci, li, ok := NextLesson(c, 0, 0); !ok || ci != 0 || li != 1 {
		t.Fatalf("NextLesson(0,0) = %d,%d,%v", ci, li, ok)
	}
	if ci, li, ok := NextLesson(c, 0, 1); !ok || ci != 1 || li != 0 {
		t.Fatalf("NextLesson(0,1) = %d,%d,%v", ci, li, ok)
	}
	if _, _, ok := NextLesson(c, 1, 0); ok {
		t.Fatalf("last lesson has no successor")
	}
	c.Chapters[0].Lessons[0].Completed = true
	if got := Progress(c); got != 33 {
		t.Fatalf("progress: got=%d want=33", got)
	}
}
