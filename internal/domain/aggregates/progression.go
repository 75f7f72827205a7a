package aggregates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

// Lock namespaces. Keys are "<namespace><id>".
const (
	LedgerLockPrefix = "ledger:"
	CourseLockPrefix = "course:"
)

// Completions lock the course and then the ledger; the sorted key order keeps that deadlock free.
var ProgressionAggregateContract = Contract{
	Name:         "Gamification.ProgressionAggregate",
	LockPrefixes: []string{LedgerLockPrefix, CourseLockPrefix},
	Notes:        "ledger XP, level, streak and achievements, lesson progress, XP journal",
}

var CourseAggregateContract = Contract{
	Name:         "Learning.CourseAggregate",
	LockPrefixes: []string{CourseLockPrefix},
	TableReads:   true,
	Notes:        "course graph creation and deletion",
}

// ProgressionAggregate serializes every write that touches a user's ledger.
//
// Failures are *Error values with CodeValidation, CodeNotFound, CodeConflict,
// CodePreconditionFailed (locked lesson), CodeRetryable or CodeInternal.
type ProgressionAggregate interface {
	Aggregate

	// Ledger returns the user's ledger, creating it on first access.
	Ledger(ctx context.Context, userID string) (*gamification.XPLedger, error)

	AwardXP(ctx context.Context, in AwardXPInput) (AwardXPResult, error)
	RecordStreak(ctx context.Context, in RecordStreakInput) (RecordStreakResult, error)
	GrantAchievement(ctx context.Context, in GrantAchievementInput) (GrantAchievementResult, error)
	CompleteQuiz(ctx context.Context, in CompleteQuizInput) (CompletionResult, error)
	CompleteLesson(ctx context.Context, in CompleteLessonInput) (CompletionResult, error)

	// SetXP is the administrative correction path and may lower XP.
	SetXP(ctx context.Context, in SetXPInput) (AwardXPResult, error)
	// RecomputeLevels rewrites derived level fields on every ledger and reports how many changed.
	RecomputeLevels(ctx context.Context) (int, error)
}

type AwardXPInput struct {
	UserID   string
	Amount   int64
	Source   string
	SourceID string
	Metadata map[string]any
}

type AwardXPResult struct {
	XP     progression.XPResult
	Ledger *gamification.XPLedger
}

type RecordStreakInput struct {
	UserID string
	At     time.Time
}

type RecordStreakResult struct {
	Streak  progression.StreakUpdate
	BonusXP int64
	XP      *progression.XPResult
	Ledger  *gamification.XPLedger
}

type GrantAchievementInput struct {
	UserID      string
	Name        string
	Description string
	XPReward    int64
	At          time.Time
}

type GrantAchievementResult struct {
	Achievement gamification.Achievement
	XP          *progression.XPResult
	Ledger      *gamification.XPLedger
}

type CompleteQuizInput struct {
	UserID         string
	CourseID       uuid.UUID
	ChapterIndex   int
	LessonIndex    int
	Score          int
	TotalQuestions int
	XPReward       *int64
	At             time.Time
}

type CompleteLessonInput struct {
	UserID       string
	CourseID     uuid.UUID
	ChapterIndex int
	LessonIndex  int
	XPReward     *int64
	At           time.Time
}

// CompletionResult combines course progress, XP and streak outcomes of one completion.
type CompletionResult struct {
	Completion  progression.Completion
	XP          *progression.XPResult
	Streak      progression.StreakUpdate
	StreakBonus int64
	StreakXP    *progression.XPResult
	Ledger      *gamification.XPLedger
	Course      *course.Course
}

// XPAwarded is the sum of every XP change applied by the completion.
func (r CompletionResult) XPAwarded() int64 {
	var total int64
	if r.XP != nil {
		total += r.XP.Amount
	}
	if r.StreakXP != nil {
		total += r.StreakXP.Amount
	}
	return total
}

// LeveledUp reports whether any XP change in the completion crossed a level.
func (r CompletionResult) LeveledUp() bool {
	return (r.XP != nil && r.XP.LeveledUp) || (r.StreakXP != nil && r.StreakXP.LeveledUp)
}

type SetXPInput struct {
	UserID string
	Total  int64
	Reason string
}

// CourseAggregate owns course graph writes.
type CourseAggregate interface {
	Aggregate

	// CreateGenerated persists a course with its chapters and lessons in one transaction.
	CreateGenerated(ctx context.Context, c *course.Course) (*course.Course, error)
	// Delete soft-deletes a course owned by ownerID.
	Delete(ctx context.Context, ownerID string, courseID uuid.UUID) error
}
