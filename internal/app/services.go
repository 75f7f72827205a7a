package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/coursecraft-backend/internal/domain/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type Services struct {
	XP       services.XPService
	Progress services.ProgressService
	Course   services.CourseService
	Verifier services.Verifier
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:         db,
		Log:        log,
		Locker:     clients.Locker,
		MaxRetries: cfg.MaxWriteRetries,
	}
	var progressionMetrics services.ProgressionMetrics
	if metrics != nil {
		base.Hooks = aggregates.NewMetricsHooks(metrics)
		progressionMetrics = metrics
	}

	progression := aggregates.NewProgressionAggregate(aggregates.ProgressionAggregateDeps{
		Base:         base,
		Ledgers:      r.Ledgers,
		Achievements: r.Achievements,
		Events:       r.XPEvents,
		Courses:      r.Courses,
		Policy:       cfg.Policy,
		Location:     cfg.StreakLocation,
	})
	courseAgg := aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{Base: base, Courses: r.Courses})
	for _, agg := range []domainagg.Aggregate{progression, courseAgg} {
		c := agg.Contract()
		if err := c.Validate(); err != nil {
			return Services{}, fmt.Errorf("init aggregates: %w", err)
		}
		log.Debug("Aggregate ready", "aggregate", c.Name, "locks", c.LockPrefixes)
	}

	var generator services.Generator
	if clients.LLM != nil {
		generator = coursegen.NewGenerator(clients.LLM, cfg.Coursegen, log)
	}

	verifier, err := services.NewVerifier(cfg.Auth, authHTTPClient(), log)
	if err != nil {
		return Services{}, fmt.Errorf("init auth: %w", err)
	}

	return Services{
		XP:       services.NewXPService(log, progression, r.Ledgers, r.XPEvents, clients.Emitter, progressionMetrics),
		Progress: services.NewProgressService(log, progression, clients.Emitter, progressionMetrics),
		Course:   services.NewCourseService(log, generator, courseAgg, r.Courses, progressionMetrics),
		Verifier: verifier,
	}, nil
}
