package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type ProgressHandler struct {
	log      *logger.Logger
	progress services.ProgressService
}

func NewProgressHandler(log *logger.Logger, progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{log: log.With("handler", "ProgressHandler"), progress: progress}
}

type lessonRef struct {
	UserID       string `json:"userId" binding:"required,notblank"`
	CourseID     string `json:"courseId" binding:"required,uuid"`
	ChapterIndex int    `json:"chapterIndex" binding:"min=0"`
	LessonIndex  int    `json:"lessonIndex" binding:"min=0"`
	XPReward     *int64 `json:"xpReward" binding:"omitempty,min=0,max=1000000"`
}

type quizCompleteRequest struct {
	lessonRef
	Score          int `json:"score"`
	TotalQuestions int `json:"totalQuestions"`
}

func (r lessonRef) courseID() (uuid.UUID, error) {
	id, err := uuid.Parse(r.CourseID)
	if err != nil {
		return uuid.Nil, errors.New("courseId must be a uuid")
	}
	return id, nil
}

// POST /api/quiz/complete
func (h *ProgressHandler) CompleteQuiz(c *gin.Context) {
	var req quizCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	if !requireSelf(c, req.UserID) {
		return
	}
	courseID, err := req.courseID()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidBody, err)
		return
	}
	res, err := h.progress.CompleteQuiz(c.Request.Context(), domainagg.CompleteQuizInput{
		UserID:         req.UserID,
		CourseID:       courseID,
		ChapterIndex:   req.ChapterIndex,
		LessonIndex:    req.LessonIndex,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		XPReward:       req.XPReward,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toCompletionDTO(res))
}

// POST /api/lesson/complete
func (h *ProgressHandler) CompleteLesson(c *gin.Context) {
	var req lessonRef
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	if !requireSelf(c, req.UserID) {
		return
	}
	courseID, err := req.courseID()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeInvalidBody, err)
		return
	}
	res, err := h.progress.CompleteLesson(c.Request.Context(), domainagg.CompleteLessonInput{
		UserID:       req.UserID,
		CourseID:     courseID,
		ChapterIndex: req.ChapterIndex,
		LessonIndex:  req.LessonIndex,
		XPReward:     req.XPReward,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, toCompletionDTO(res))
}

func toCompletionDTO(res domainagg.CompletionResult) completionDTO {
	c := res.Completion
	out := completionDTO{
		Attempts:  c.Attempts,
		XPAwarded: res.XPAwarded(),
		XPBreakdown: breakdownDTO{
			Base:      c.Breakdown.Base,
			Perfect:   c.Breakdown.Perfect,
			Excellent: c.Breakdown.Excellent,
			Chapter:   c.Breakdown.Chapter,
		},
		LessonCompleted:     c.LessonCompleted,
		ChapterCompleted:    c.ChapterCompleted,
		NextLessonUnlocked:  c.NextLessonUnlocked,
		NextChapterUnlocked: c.NextChapterUnlocked,
		LeveledUp:           res.LeveledUp(),
		Streak:              toStreakDTO(res.Streak, res.StreakBonus),
	}
	if c.Quiz != nil {
		pct, passed := c.Quiz.Percentage, c.Quiz.Passed
		out.Percentage = &pct
		out.Passed = &passed
	}
	if res.Ledger != nil {
		out.NewLevel = res.Ledger.CurrentLevel
		out.TotalXP = res.Ledger.TotalXP
	}
	return out
}
