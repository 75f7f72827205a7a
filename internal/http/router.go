package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware
	AllowedOrigins []string
	// Metrics enables request instrumentation and GET /metrics when non-nil.
	Metrics *observability.Metrics
	// TracingService names the otelgin server spans; empty disables them.
	TracingService string

	XPHandler       *httpH.XPHandler
	ProgressHandler *httpH.ProgressHandler
	CourseHandler   *httpH.CourseHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	httpH.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// XP and gamification
	if cfg.XPHandler != nil {
		api.GET("/xp/:userId", cfg.XPHandler.GetLedger)
		api.GET("/xp/:userId/history", cfg.XPHandler.History)
		api.GET("/xp/rank/:userId", cfg.XPHandler.Rank)
		api.POST("/xp/add", cfg.XPHandler.AddXP)
		api.POST("/xp/streak/:userId", cfg.XPHandler.UpdateStreak)
		api.POST("/xp/achievement", cfg.XPHandler.GrantAchievement)
		api.GET("/leaderboard", cfg.XPHandler.Leaderboard)
	}

	// Quiz and lesson completion
	if cfg.ProgressHandler != nil {
		api.POST("/quiz/complete", cfg.ProgressHandler.CompleteQuiz)
		api.POST("/lesson/complete", cfg.ProgressHandler.CompleteLesson)
	}

	// Courses
	if cfg.CourseHandler != nil {
		api.POST("/courses/generate", cfg.CourseHandler.Generate)
		api.GET("/courses", cfg.CourseHandler.List)
		api.GET("/courses/:id", cfg.CourseHandler.View)
		api.DELETE("/courses/:id", cfg.CourseHandler.Delete)
	}

	return r
}
