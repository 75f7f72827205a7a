package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
)

// UserID returns a unique opaque identity key so postgres-backed runs do not collide.
func UserID(prefix string) string {
	return prefix + "_" + uuid.NewString()[:8]
}

func SeedLedger(tb testing.TB, ctx context.Context, tx *gorm.DB, userID string, totalXP int64, createdAt time.Time) *types.XPLedger {
	tb.Helper()
	l := &types.XPLedger{
		ID:            uuid.New(),
		UserID:        userID,
		TotalXP:       totalXP,
		CurrentLevel:  1,
		XPToNextLevel: 100,
		CreatedAt:     createdAt.UTC(),
		UpdatedAt:     createdAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed ledger: %v", err)
	}
	return l
}

// NewCourse builds an unsaved course whose chapters hold the given lesson counts.
func NewCourse(ownerID string, lessonsPerChapter ...int) *types.Course {
	c := &types.Course{
		OwnerID:    ownerID,
		Topic:      "go",
		Difficulty: "beginner",
		Title:      "Learning Go",
	}
	for ci, n := range lessonsPerChapter {
		ch := types.Chapter{Title: "chapter " + string(rune('A'+ci))}
		for li := 0; li < n; li++ {
			ch.Lessons = append(ch.Lessons, types.Lesson{
				Title:   "lesson " + string(rune('A'+ci)) + string(rune('1'+li)),
				Content: "content",
				XP:      10,
			})
		}
		c.Chapters = append(c.Chapters, ch)
	}
	return c
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, c *types.Course) *types.Course {
	tb.Helper()
	c.ID = uuid.New()
	for ci := range c.Chapters {
		ch := &c.Chapters[ci]
		ch.ID = uuid.New()
		ch.CourseID = c.ID
		ch.Position = ci
		for li := range ch.Lessons {
			ch.Lessons[li].CourseID = c.ID
			ch.Lessons[li].ChapterID = ch.ID
			ch.Lessons[li].Position = li
		}
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func PtrInt(v int) *int { return &v }

func PtrInt64(v int64) *int64 { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
