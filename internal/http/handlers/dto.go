package handlers

import (
	"time"

	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/progression"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type achievementDTO struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	XPReward    int64     `json:"xpReward"`
	EarnedAt    time.Time `json:"earnedAt"`
}

type ledgerDTO struct {
	UserID           string           `json:"userId"`
	TotalXP          int64            `json:"totalXP"`
	CurrentLevel     int              `json:"currentLevel"`
	XPToNextLevel    int64            `json:"xpToNextLevel"`
	CurrentStreak    int              `json:"currentStreak"`
	LongestStreak    int              `json:"longestStreak"`
	LastActivityDate *string          `json:"lastActivityDate"`
	Achievements     []achievementDTO `json:"achievements"`
}

func toAchievementDTO(a gamification.Achievement) achievementDTO {
	return achievementDTO{Name: a.Name, Description: a.Description, XPReward: a.XPReward, EarnedAt: a.EarnedAt}
}

func toLedgerDTO(l *gamification.XPLedger) ledgerDTO {
	out := ledgerDTO{
		UserID:        l.UserID,
		TotalXP:       l.TotalXP,
		CurrentLevel:  l.CurrentLevel,
		XPToNextLevel: l.XPToNextLevel,
		CurrentStreak: l.StreakCurrent,
		LongestStreak: l.StreakLongest,
		Achievements:  make([]achievementDTO, 0, len(l.Achievements)),
	}
	if l.LastActivityDate != nil {
		day := l.LastActivityDate.UTC().Format(time.DateOnly)
		out.LastActivityDate = &day
	}
	for _, a := range l.Achievements {
		out.Achievements = append(out.Achievements, toAchievementDTO(a))
	}
	return out
}

type xpEventDTO struct {
	Amount      int64     `json:"amount"`
	Source      string    `json:"source"`
	SourceID    string    `json:"sourceId,omitempty"`
	LevelBefore int       `json:"levelBefore"`
	LevelAfter  int       `json:"levelAfter"`
	CreatedAt   time.Time `json:"createdAt"`
}

type streakDTO struct {
	StreakContinued bool  `json:"streakContinued"`
	WasReset        bool  `json:"wasReset"`
	CurrentStreak   int   `json:"currentStreak"`
	LongestStreak   int   `json:"longestStreak"`
	BonusXP         int64 `json:"bonusXP"`
}

func toStreakDTO(u progression.StreakUpdate, bonus int64) streakDTO {
	return streakDTO{
		StreakContinued: u.Continued,
		WasReset:        u.WasReset,
		CurrentStreak:   u.Current,
		LongestStreak:   u.Longest,
		BonusXP:         bonus,
	}
}

type leaderboardEntryDTO struct {
	Rank         int    `json:"rank"`
	UserID       string `json:"userId"`
	TotalXP      int64  `json:"totalXP"`
	CurrentLevel int    `json:"currentLevel"`
}

type breakdownDTO struct {
	Base      int64 `json:"base"`
	Perfect   int64 `json:"perfect"`
	Excellent int64 `json:"excellent"`
	Chapter   int64 `json:"chapter"`
}

type completionDTO struct {
	Percentage          *int         `json:"percentage,omitempty"`
	Passed              *bool        `json:"passed,omitempty"`
	Attempts            int          `json:"attempts"`
	XPAwarded           int64        `json:"xpAwarded"`
	XPBreakdown         breakdownDTO `json:"xpBreakdown"`
	LessonCompleted     bool         `json:"lessonCompleted"`
	ChapterCompleted    bool         `json:"chapterCompleted"`
	NextLessonUnlocked  bool         `json:"nextLessonUnlocked"`
	NextChapterUnlocked bool         `json:"nextChapterUnlocked"`
	LeveledUp           bool         `json:"leveledUp"`
	NewLevel            int          `json:"newLevel"`
	TotalXP             int64        `json:"totalXP"`
	Streak              streakDTO    `json:"streak"`
}

// lessonQuiz is the quiz as served to clients.
type lessonQuiz struct {
	Title     string            `json:"title,omitempty"`
	Questions []course.Question `json:"questions"`
}

type lessonDTO struct {
	ID          string      `json:"id"`
	Position    int         `json:"position"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	XP          int64       `json:"xp"`
	Quiz        *lessonQuiz `json:"quiz,omitempty"`
	Completed   bool        `json:"completed"`
	Attempts    int         `json:"attempts"`
	QuizScore   *int        `json:"quizScore,omitempty"`
	QuizPassed  bool        `json:"quizPassed"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Unlocked    *bool       `json:"unlocked,omitempty"`
}

type chapterDTO struct {
	ID          string      `json:"id"`
	Position    int         `json:"position"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Completed   bool        `json:"completed"`
	Unlocked    *bool       `json:"unlocked,omitempty"`
	Lessons     []lessonDTO `json:"lessons"`
}

type courseDTO struct {
	ID          string       `json:"id"`
	Topic       string       `json:"topic"`
	Difficulty  string       `json:"difficulty"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Model       string       `json:"model,omitempty"`
	Progress    int          `json:"progress"`
	CreatedAt   time.Time    `json:"createdAt"`
	Chapters    []chapterDTO `json:"chapters"`
}

type courseSummaryDTO struct {
	ID           string    `json:"id"`
	Topic        string    `json:"topic"`
	Difficulty   string    `json:"difficulty"`
	Title        string    `json:"title"`
	Progress     int       `json:"progress"`
	ChapterCount int       `json:"chapterCount"`
	LessonCount  int       `json:"lessonCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toLessonDTO(l *course.Lesson) lessonDTO {
	out := lessonDTO{
		ID:          l.ID.String(),
		Position:    l.Position,
		Title:       l.Title,
		Content:     l.Content,
		XP:          l.XP,
		Completed:   l.Completed,
		Attempts:    l.Attempts,
		QuizScore:   l.QuizScore,
		QuizPassed:  l.QuizPassed,
		CompletedAt: l.CompletedAt,
	}
	if q, err := l.QuizData(); err == nil && q != nil && len(q.Questions) > 0 {
		out.Quiz = &lessonQuiz{Title: q.Title, Questions: q.Questions}
	}
	return out
}

// toCourseDTO renders c; a non-nil view adds the derived unlock flags.
func toCourseDTO(c *course.Course, view *services.CourseView) courseDTO {
	out := courseDTO{
		ID:          c.ID.String(),
		Topic:       c.Topic,
		Difficulty:  c.Difficulty,
		Title:       c.Title,
		Description: c.Description,
		Model:       c.Model,
		Progress:    progression.Progress(c),
		CreatedAt:   c.CreatedAt,
		Chapters:    make([]chapterDTO, 0, len(c.Chapters)),
	}
	for ci := range c.Chapters {
		ch := &c.Chapters[ci]
		cd := chapterDTO{
			ID:          ch.ID.String(),
			Position:    ch.Position,
			Title:       ch.Title,
			Description: ch.Description,
			Completed:   ch.Completed,
			Lessons:     make([]lessonDTO, 0, len(ch.Lessons)),
		}
		if view != nil {
			unlocked := view.Chapters[ci].Unlocked
			cd.Unlocked = &unlocked
			cd.Completed = view.Chapters[ci].Completed
		}
		for li := range ch.Lessons {
			ld := toLessonDTO(&ch.Lessons[li])
			if view != nil {
				unlocked := view.Chapters[ci].Lessons[li].Unlocked
				ld.Unlocked = &unlocked
			}
			cd.Lessons = append(cd.Lessons, ld)
		}
		out.Chapters = append(out.Chapters, cd)
	}
	return out
}

func toCourseSummaryDTO(c *course.Course) courseSummaryDTO {
	lessons := 0
	for _, ch := range c.Chapters {
		lessons += len(ch.Lessons)
	}
	return courseSummaryDTO{
		ID:           c.ID.String(),
		Topic:        c.Topic,
		Difficulty:   c.Difficulty,
		Title:        c.Title,
		Progress:     progression.Progress(c),
		ChapterCount: len(c.Chapters),
		LessonCount:  lessons,
		CreatedAt:    c.CreatedAt,
	}
}
