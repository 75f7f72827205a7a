package app

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	httpx "github.com/yungbote/coursecraft-backend/internal/http"
	httpH "github.com/yungbote/coursecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

func wireRouterConfig(log *logger.Logger, cfg Config, svc Services, db *gorm.DB, rdb *goredis.Client, metrics *observability.Metrics) httpx.RouterConfig {
	log.Info("Wiring handlers...")
	checks := map[string]httpH.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	rc := httpx.RouterConfig{
		Log:             log,
		AuthMiddleware:  httpMW.NewAuthMiddleware(log, svc.Verifier),
		AllowedOrigins:  cfg.AllowedOrigins,
		Metrics:         metrics,
		XPHandler:       httpH.NewXPHandler(log, svc.XP),
		ProgressHandler: httpH.NewProgressHandler(log, svc.Progress),
		CourseHandler:   httpH.NewCourseHandler(log, svc.Course),
		HealthHandler:   httpH.NewHealthHandler(checks),
	}
	if cfg.Otel.Enabled {
		rc.TracingService = cfg.Otel.ServiceName
	}
	return rc
}
