package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/data/repos"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
)

type CourseAggregateDeps struct {
	Base    BaseDeps
	Courses repos.CourseRepo
}

type courseAggregate struct {
	deps CourseAggregateDeps
}

func NewCourseAggregate(deps CourseAggregateDeps) domainagg.CourseAggregate {
	deps.Base = deps.Base.withDefaults()
	return &courseAggregate{deps: deps}
}

func (a *courseAggregate) Contract() domainagg.Contract {
	return domainagg.CourseAggregateContract
}

func (a *courseAggregate) CreateGenerated(ctx context.Context, c *course.Course) (*course.Course, error) {
	const op = "Learning.Course.CreateGenerated"
	if c == nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing course", nil)
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	if len(c.Chapters) == 0 {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "course has no chapters", nil)
	}
	if a.deps.Courses == nil {
		return nil, domainagg.NewError(domainagg.CodeInternal, op, "course repo not configured", nil)
	}
	var out *course.Course
	err := executeContractWrite(ctx, a.deps.Base, a.Contract(), op, nil, func(dbc dbctx.Context) error {
		created, err := a.deps.Courses.CreateGraph(dbc, c)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

func (a *courseAggregate) Delete(ctx context.Context, ownerID string, courseID uuid.UUID) error {
	const op = "Learning.Course.Delete"
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domainagg.NewError(domainagg.CodeValidation, op, "missing owner_id", nil)
	}
	if a.deps.Courses == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "course repo not configured", nil)
	}
	return executeContractWrite(ctx, a.deps.Base, a.Contract(), op, []string{CourseKey(courseID.String())}, func(dbc dbctx.Context) error {
		ok, err := a.deps.Courses.SoftDelete(dbc, ownerID, courseID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("course %s: %w", courseID, course.ErrCourseNotFound)
		}
		return nil
	})
}
