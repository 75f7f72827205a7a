package domain

import (
	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
)

type XPLedger = gamification.XPLedger
type Achievement = gamification.Achievement
type XPEvent = gamification.XPEvent

type Course = course.Course
type Chapter = course.Chapter
type Lesson = course.Lesson
type Quiz = course.Quiz
type Question = course.Question

const (
	SourceManual          = gamification.SourceManual
	SourceLessonComplete  = gamification.SourceLessonComplete
	SourceQuizComplete    = gamification.SourceQuizComplete
	SourceStreakBonus     = gamification.SourceStreakBonus
	SourceAchievement     = gamification.SourceAchievement
	SourceAdminCorrection = gamification.SourceAdminCorrection
)

// Models lists every persisted model in migration order.
func Models() []any {
	return []any{
		&XPLedger{},
		&Achievement{},
		&XPEvent{},
		&Course{},
		&Chapter{},
		&Lesson{},
	}
}
