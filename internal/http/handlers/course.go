package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/http/response"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type CourseHandler struct {
	log     *logger.Logger
	courses services.CourseService
}

func NewCourseHandler(log *logger.Logger, courses services.CourseService) *CourseHandler {
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courses: courses}
}

type generateCourseRequest struct {
	Topic             string `json:"topic" binding:"required,notblank,max=200"`
	Difficulty        string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced Beginner Intermediate Advanced"`
	ChapterCount      int    `json:"chapterCount" binding:"min=0,max=10"`
	LessonsPerChapter int    `json:"lessonsPerChapter" binding:"min=0,max=8"`
}

// POST /api/courses/generate
func (h *CourseHandler) Generate(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	var req generateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	created, err := h.courses.Generate(c.Request.Context(), owner, coursegen.Params{
		Topic:             req.Topic,
		Difficulty:        req.Difficulty,
		ChapterCount:      req.ChapterCount,
		LessonsPerChapter: req.LessonsPerChapter,
	})
	if err != nil {
		h.log.Warn("course generation failed", "owner_id", owner, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": toCourseDTO(created, services.BuildCourseView(created))})
}

// GET /api/courses
func (h *CourseHandler) List(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	rows, err := h.courses.List(c.Request.Context(), owner)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := make([]courseSummaryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCourseSummaryDTO(row))
	}
	response.RespondOK(c, gin.H{"courses": out})
}

// GET /api/courses/:id
func (h *CourseHandler) View(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := courseParam(c)
	if !ok {
		return
	}
	view, err := h.courses.View(c.Request.Context(), owner, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": toCourseDTO(view.Course, view)})
}

// DELETE /api/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	owner, ok := callerID(c)
	if !ok {
		return
	}
	id, ok := courseParam(c)
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), owner, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func courseParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusNotFound, services.CodeCourseNotFound, err)
		return uuid.Nil, false
	}
	return id, true
}
