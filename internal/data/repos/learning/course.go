package learning

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type CourseRepo interface {
	CreateGraph(dbc dbctx.Context, c *types.Course) (*types.Course, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	ListByOwner(dbc dbctx.Context, ownerID string, limit int) ([]*types.Course, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	UpdateLessonProgress(dbc dbctx.Context, l *types.Lesson) error
	UpdateChapterCompleted(dbc dbctx.Context, chapterID uuid.UUID, completed bool) error
	SoftDelete(dbc dbctx.Context, ownerID string, id uuid.UUID) (bool, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// CreateGraph inserts the course with its chapters and lessons. Ids and positions are assigned
// here so that lessons carry both their chapter and course keys.
func (r *courseRepo) CreateGraph(dbc dbctx.Context, c *types.Course) (*types.Course, error) {
	if c == nil {
		return nil, fmt.Errorf("missing course")
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return nil, fmt.Errorf("missing owner_id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for ci := range c.Chapters {
		ch := &c.Chapters[ci]
		if ch.ID == uuid.Nil {
			ch.ID = uuid.New()
		}
		ch.CourseID = c.ID
		ch.Position = ci
		for li := range ch.Lessons {
			l := &ch.Lessons[li]
			if l.ID == uuid.Nil {
				l.ID = uuid.New()
			}
			l.CourseID = c.ID
			l.ChapterID = ch.ID
			l.Position = li
		}
	}
	if err := t.WithContext(dbc.Ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetByID loads the full course graph in position order. A missing or deleted course yields
// (nil, nil).
func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var rows []*types.Course
	if err := t.WithContext(dbc.Ctx).
		Preload("Chapters", byPosition).
		Preload("Chapters.Lessons", byPosition).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *courseRepo) ListByOwner(dbc dbctx.Context, ownerID string, limit int) ([]*types.Course, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("missing owner_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.Course
	if err := t.WithContext(dbc.Ctx).
		Preload("Chapters", byPosition).
		Preload("Chapters.Lessons", byPosition).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// LockByID takes a row lock on the course and then loads its graph inside the same transaction.
func (r *courseRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Course
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	var chapters []types.Chapter
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Where("course_id = ?", out.ID).
		Order("position ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}
	var lessons []types.Lesson
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Where("course_id = ?", out.ID).
		Order("position ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	byChapter := make(map[uuid.UUID][]types.Lesson, len(chapters))
	for _, l := range lessons {
		byChapter[l.ChapterID] = append(byChapter[l.ChapterID], l)
	}
	for i := range chapters {
		chapters[i].Lessons = byChapter[chapters[i].ID]
	}
	out.Chapters = chapters
	return &out, nil
}

func (r *courseRepo) UpdateLessonProgress(dbc dbctx.Context, l *types.Lesson) error {
	if l == nil || l.ID == uuid.Nil {
		return fmt.Errorf("missing lesson id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()
	l.UpdatedAt = now
	return t.WithContext(dbc.Ctx).
		Model(&types.Lesson{}).
		Where("id = ?", l.ID).
		Updates(map[string]interface{}{
			"completed":    l.Completed,
			"attempts":     l.Attempts,
			"quiz_score":   l.QuizScore,
			"quiz_passed":  l.QuizPassed,
			"completed_at": l.CompletedAt,
			"updated_at":   now,
		}).Error
}

func (r *courseRepo) UpdateChapterCompleted(dbc dbctx.Context, chapterID uuid.UUID, completed bool) error {
	if chapterID == uuid.Nil {
		return fmt.Errorf("missing chapter id")
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Model(&types.Chapter{}).
		Where("id = ?", chapterID).
		Updates(map[string]interface{}{
			"completed":  completed,
			"updated_at": time.Now().UTC(),
		}).Error
}

// SoftDelete reports whether a live course owned by ownerID was deleted.
func (r *courseRepo) SoftDelete(dbc dbctx.Context, ownerID string, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Where("id = ? AND owner_id = ?", id, strings.TrimSpace(ownerID)).
		Delete(&types.Course{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
