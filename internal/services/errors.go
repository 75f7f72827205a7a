package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/domain/course"
	"github.com/yungbote/coursecraft-backend/internal/domain/gamification"
	"github.com/yungbote/coursecraft-backend/internal/platform/apierr"
	"github.com/yungbote/coursecraft-backend/internal/progression"
)

const (
	CodeInvalidBody       = "invalid_body"
	CodeInvalidAmount     = "invalid_amount"
	CodeInvalidQuiz       = "invalid_quiz"
	CodeAchievementExists = "achievement_exists"
	CodeLedgerNotFound    = "ledger_not_found"
	CodeCourseNotFound    = "course_not_found"
	CodeLessonNotFound    = "lesson_not_found"
	CodeLessonLocked      = "lesson_locked"
	CodeConflict          = "conflict"
	CodeGenerationFailed  = "generation_failed"
	CodeForbidden         = "forbidden"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal_error"
	CodeUnavailable       = "unavailable"
)

// mapError turns engine, aggregate and generation failures into API errors. Sentinels are
// checked before aggregate codes so the specific code wins.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apierr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, progression.ErrInvalidAmount):
		return apierr.BadRequest(CodeInvalidAmount, err)
	case errors.Is(err, progression.ErrInvalidQuiz):
		return apierr.BadRequest(CodeInvalidQuiz, err)
	case errors.Is(err, gamification.ErrAchievementExists):
		return apierr.BadRequest(CodeAchievementExists, err)
	case errors.Is(err, gamification.ErrInvalidAchievement), errors.Is(err, coursegen.ErrInvalidParams):
		return apierr.BadRequest(CodeInvalidBody, err)
	case errors.Is(err, gamification.ErrLedgerNotFound):
		return apierr.NotFound(CodeLedgerNotFound, err)
	case errors.Is(err, course.ErrCourseNotFound):
		return apierr.NotFound(CodeCourseNotFound, err)
	case errors.Is(err, progression.ErrLessonNotFound):
		return apierr.NotFound(CodeLessonNotFound, err)
	case errors.Is(err, progression.ErrLessonLocked):
		return apierr.Conflict(CodeLessonLocked, err)
	case errors.Is(err, coursegen.ErrGenerationFailed):
		return apierr.New(http.StatusBadGateway, CodeGenerationFailed, err)
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.BadRequest(CodeInvalidBody, err)
	case domainagg.CodeNotFound:
		return apierr.NotFound("not_found", err)
	case domainagg.CodeConflict, domainagg.CodePreconditionFailed:
		return apierr.Conflict(CodeConflict, err)
	case domainagg.CodeRetryable:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return apierr.New(http.StatusServiceUnavailable, CodeUnavailable, err)
		}
		return apierr.Conflict(CodeConflict, err)
	}
	return apierr.New(http.StatusInternalServerError, CodeInternal, err)
}

var errGeneratorUnavailable = errors.New("course generation is not configured")

func isBadRequest(err error) bool {
	ae, ok := apierr.As(err)
	return ok && ae.Status == http.StatusBadRequest
}
