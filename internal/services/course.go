package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

const maxCoursesListed = 100

// Generator is satisfied by *coursegen.Generator.
type Generator interface {
	Generate(ctx context.Context, p coursegen.Params) (*course.Course, error)
}

type CourseService interface {
	Generate(ctx context.Context, ownerID string, p coursegen.Params) (*course.Course, error)
	List(ctx context.Context, ownerID string) ([]*course.Course, error)
	View(ctx context.Context, ownerID string, courseID uuid.UUID) (*CourseView, error)
	Delete(ctx context.Context, ownerID string, courseID uuid.UUID) error
}

// CourseView is a course with the unlock state derived from lesson completion.
type CourseView struct {
	Course   *course.Course
	Chapters []ChapterView
	Progress int
}

type ChapterView struct {
	Unlocked  bool
	Completed bool
	Lessons   []LessonView
}

type LessonView struct {
	Unlocked bool
}

type courseService struct {
	log       *logger.Logger
	generator Generator
	agg       domainagg.CourseAggregate
	courses   repos.CourseRepo
	metrics   ProgressionMetrics
}

func NewCourseService(
	baseLog *logger.Logger,
	generator Generator,
	agg domainagg.CourseAggregate,
	courses repos.CourseRepo,
	metrics ProgressionMetrics,
) CourseService {
	return &courseService{
		log:       baseLog.With("service", "CourseService"),
		generator: generator,
		agg:       agg,
		courses:   courses,
		metrics:   orNoop(metrics),
	}
}

// Generate runs the provider and persists the result in one transaction. Nothing is stored
// when generation fails.
func (s *courseService) Generate(ctx context.Context, ownerID string, p coursegen.Params) (*course.Course, error) {
	ctx, span := observability.StartSpan(ctx, "course.generate",
		attribute.String("course.topic", p.Topic),
		attribute.String("course.difficulty", p.Difficulty),
	)
	defer span.End()

	if s.generator == nil {
		s.metrics.IncCourseGeneration("unconfigured")
		return nil, apierr.New(503, CodeUnavailable, errGeneratorUnavailable)
	}
	c, err := s.generator.Generate(ctx, p)
	if err != nil {
		span.RecordError(err)
		mapped := mapError(err)
		if isBadRequest(mapped) {
			s.metrics.IncCourseGeneration("invalid")
		} else {
			s.metrics.IncCourseGeneration("failed")
		}
		return nil, mapped
	}
	c.OwnerID = strings.TrimSpace(ownerID)
	saved, err := s.agg.CreateGenerated(ctx, c)
	if err != nil {
		s.metrics.IncCourseGeneration("persist_failed")
		return nil, mapError(err)
	}
	s.metrics.IncCourseGeneration("ok")
	s.log.Info("course created", "owner_id", saved.OwnerID, "course_id", saved.ID, "chapters", len(saved.Chapters))
	return saved, nil
}

func (s *courseService) List(ctx context.Context, ownerID string) ([]*course.Course, error) {
	rows, err := s.courses.ListByOwner(dbctx.Context{Ctx: ctx}, strings.TrimSpace(ownerID), maxCoursesListed)
	if err != nil {
		return nil, mapError(err)
	}
	return rows, nil
}

// View returns the course only to its owner; anyone else gets course_not_found.
func (s *courseService) View(ctx context.Context, ownerID string, courseID uuid.UUID) (*CourseView, error) {
	c, err := s.courses.GetByID(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return nil, mapError(err)
	}
	if c == nil || c.OwnerID != strings.TrimSpace(ownerID) {
		return nil, mapError(course.ErrCourseNotFound)
	}
	return BuildCourseView(c), nil
}

func BuildCourseView(c *course.Course) *CourseView {
	v := &CourseView{Course: c, Progress: progression.Progress(c), Chapters: make([]ChapterView, len(c.Chapters))}
	for ci := range c.Chapters {
		cv := ChapterView{
			Unlocked:  progression.IsChapterUnlocked(c, ci),
			Completed: progression.IsChapterComplete(c, ci),
			Lessons:   make([]LessonView, len(c.Chapters[ci].Lessons)),
		}
		for li := range c.Chapters[ci].Lessons {
			cv.Lessons[li] = LessonView{Unlocked: progression.IsLessonUnlocked(c, ci, li)}
		}
		v.Chapters[ci] = cv
	}
	return v
}

func (s *courseService) Delete(ctx context.Context, ownerID string, courseID uuid.UUID) error {
	if err := s.agg.Delete(ctx, strings.TrimSpace(ownerID), courseID); err != nil {
		return mapError(err)
	}
	s.log.Info("course deleted", "owner_id", ownerID, "course_id", courseID)
	return nil
}
