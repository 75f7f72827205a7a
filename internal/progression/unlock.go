package progression

import "github.com/yungbote/coursecraft-backend/internal/domain/course"

// IsChapterComplete is the derived completion state: every lesson completed. Empty chapters are
// never complete.
func IsChapterComplete(c *course.Course, ci int) bool {
	if c == nil || ci < 0 || ci >= len(c.Chapters) {
		return false
	}
	lessons := c.Chapters[ci].Lessons
	if len(lessons) == 0 {
		return false
	}
	for i := range lessons {
		if !lessons[i].Completed {
			return false
		}
	}
	return true
}

func IsChapterUnlocked(c *course.Course, ci int) bool {
	if c == nil || ci < 0 || ci >= len(c.Chapters) {
		return false
	}
	return ci == 0 || IsChapterComplete(c, ci-1)
}

func IsLessonUnlocked(c *course.Course, ci, li int) bool {
	if c.Lesson(ci, li) == nil {
		return false
	}
	if li > 0 {
		return c.Chapters[ci].Lessons[li-1].Completed
	}
	return IsChapterUnlocked(c, ci)
}

// UpdateChapterCompletion syncs the persisted chapter flag with the derived state and reports
// whether this call moved it from incomplete to complete.
func UpdateChapterCompletion(c *course.Course, ci int) bool {
	if c == nil || ci < 0 || ci >= len(c.Chapters) {
		return false
	}
	ch := &c.Chapters[ci]
	was := ch.Completed
	now := IsChapterComplete(c, ci)
	ch.Completed = now
	return !was && now
}

// NextLesson returns the position that follows (ci, li) in course order.
func NextLesson(c *course.Course, ci, li int) (int, int, bool) {
	if c.Lesson(ci, li) == nil {
		return 0, 0, false
	}
	if li+1 < len(c.Chapters[ci].Lessons) {
		return ci, li + 1, true
	}
	for next := ci + 1; next < len(c.Chapters); next++ {
		if len(c.Chapters[next].Lessons) > 0 {
			return next, 0, true
		}
	}
	return 0, 0, false
}

// Progress is the percentage of completed lessons, rounded down.
func Progress(c *course.Course) int {
	total, done := 0, 0
	for ci := range c.Chapters {
		for li := range c.Chapters[ci].Lessons {
			total++
			if c.Chapters[ci].Lessons[li].Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return done * 100 / total
}
