package progression

import "errors"

var (
	ErrInvalidAmount  = errors.New("xp amount must be positive")
	ErrInvalidQuiz    = errors.New("invalid quiz result")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrLessonLocked   = errors.New("lesson is locked")
)
