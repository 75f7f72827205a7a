package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Metrics struct {
	reg *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	xpAwarded      *prometheus.CounterVec
	xpAwards       *prometheus.CounterVec
	levelUps       prometheus.Counter
	quizAttempts   *prometheus.CounterVec
	quizPercentage prometheus.Histogram
	chapters       prometheus.Counter
	achievements   prometheus.Counter
	streakResets   prometheus.Counter

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec
	generations *prometheus.CounterVec

	dbStats *prometheus.GaugeVec
	redisUp prometheus.Gauge
}

// New registers every collector on a private registry so tests can build as many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_api_requests_total",
			Help: "API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cc_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "cc_api_inflight_requests",
			Help: "In-flight API requests.",
		}),

		xpAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_xp_awarded_total",
			Help: "XP points awarded by source.",
		}, []string{"source"}),
		xpAwards: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_xp_awards_total",
			Help: "Accepted XP mutations by source.",
		}, []string{"source"}),
		levelUps: f.NewCounter(prometheus.CounterOpts{
			Name: "cc_level_ups_total",
			Help: "Level transitions.",
		}),
		quizAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_quiz_attempts_total",
			Help: "Quiz submissions by outcome.",
		}, []string{"outcome"}),
		quizPercentage: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cc_quiz_percentage",
			Help:    "Quiz score percentage distribution.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		chapters: f.NewCounter(prometheus.CounterOpts{
			Name: "cc_chapters_completed_total",
			Help: "Chapters completed.",
		}),
		achievements: f.NewCounter(prometheus.CounterOpts{
			Name: "cc_achievements_granted_total",
			Help: "Achievements granted.",
		}),
		streakResets: f.NewCounter(prometheus.CounterOpts{
			Name: "cc_streak_resets_total",
			Help: "Streaks reset after a missed day.",
		}),

		aggregateOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_aggregate_operations_total",
			Help: "Aggregate write operations by name/status.",
		}, []string{"operation", "status"}),
		aggregateLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cc_aggregate_operation_duration_seconds",
			Help:    "Aggregate write latency by name/status.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"operation", "status"}),
		aggregateConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_aggregate_conflicts_total",
			Help: "Aggregate writes that exhausted retries on conflict.",
		}, []string{"operation"}),
		aggregateRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_aggregate_retries_total",
			Help: "Aggregate write retries.",
		}, []string{"operation"}),

		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_llm_requests_total",
			Help: "LLM requests by provider/model/status.",
		}, []string{"provider", "model", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cc_llm_request_duration_seconds",
			Help:    "LLM request latency in seconds by provider/model/status.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider", "model", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_llm_tokens_total",
			Help: "LLM tokens by model/direction.",
		}, []string{"model", "direction"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cc_course_generations_total",
			Help: "Course generation requests by outcome.",
		}, []string{"outcome"}),

		dbStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cc_db_pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
		redisUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "cc_redis_up",
			Help: "1 when the last Redis ping succeeded.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m != nil {
		m.apiInflight.Inc()
	}
}

func (m *Metrics) APIInflightDec() {
	if m != nil {
		m.apiInflight.Dec()
	}
}

// ObserveXP records an accepted award. Zero-point awards (repeat completions) are not counted.
func (m *Metrics) ObserveXP(source string, amount int64, leveledUp bool) {
	if m == nil || amount == 0 {
		return
	}
	if amount > 0 {
		m.xpAwarded.WithLabelValues(source).Add(float64(amount))
	}
	m.xpAwards.WithLabelValues(source).Inc()
	if leveledUp {
		m.levelUps.Inc()
	}
}

func (m *Metrics) ObserveQuiz(passed bool, percentage int) {
	if m == nil {
		return
	}
	outcome := "failed"
	if passed {
		outcome = "passed"
	}
	m.quizAttempts.WithLabelValues(outcome).Inc()
	m.quizPercentage.Observe(float64(percentage))
}

func (m *Metrics) IncChapterCompleted() {
	if m != nil {
		m.chapters.Inc()
	}
}

func (m *Metrics) IncAchievement() {
	if m != nil {
		m.achievements.Inc()
	}
}

func (m *Metrics) IncStreakReset() {
	if m != nil {
		m.streakResets.Inc()
	}
}

func (m *Metrics) IncCourseGeneration(outcome string) {
	if m != nil {
		m.generations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(name, status).Inc()
	m.aggregateLatency.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m != nil {
		m.aggregateConflicts.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m != nil {
		m.aggregateRetries.WithLabelValues(name).Inc()
	}
}

func (m *Metrics) ObserveLLMRequest(provider, model, status string, dur time.Duration, usage llm.Usage) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, model, status).Inc()
	m.llmLatency.WithLabelValues(provider, model, status).Observe(dur.Seconds())
	if usage.InputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(usage.OutputTokens))
	}
}

// StartDBCollector samples pool stats until ctx is done.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					log.Warn("metrics: db stats unavailable", "error", err)
					continue
				}
				s := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(s.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(s.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(s.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(s.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(s.WaitDuration.Seconds())
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient, interval time.Duration) {
	if m == nil || rdb == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					log.Warn("metrics: redis ping failed", "error", err)
					continue
				}
				m.redisUp.Set(1)
			}
		}
	}()
}
