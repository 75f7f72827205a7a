package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursecraft-backend/internal/clients/amqp"
	"github.com/yungbote/coursecraft-backend/internal/clients/redis"
	"github.com/yungbote/coursecraft-backend/internal/coursegen"
	"github.com/yungbote/coursecraft-backend/internal/data/db"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/envutil"
	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/progression"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type Config struct {
	Port    string
	LogMode string

	DB    db.Config
	Redis redis.Config
	AMQP  amqp.Config

	LLM       llm.Config
	Coursegen coursegen.Config
	Auth      services.AuthConfig

	Policy          progression.Config
	StreakLocation  *time.Location
	MaxWriteRetries int

	AllowedOrigins  []string
	MetricsEnabled  bool
	MetricsInterval time.Duration
	Otel            observability.OtelConfig
}

// LoadConfig reads the environment (after .env has been applied) and validates what can be
// checked without dialing anything.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		DB: db.Config{
			Driver:          envutil.String("DB_DRIVER", db.DriverPostgres),
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", ""),
			Name:            envutil.String("POSTGRES_NAME", "coursecraft"),
			SSLMode:         envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:      envutil.String("SQLITE_PATH", "coursecraft.db"),
			MaxOpenConns:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: redis.Config{
			Addr:     envutil.String("REDIS_ADDR", ""),
			Password: envutil.String("REDIS_PASSWORD", ""),
			DB:       envutil.Int("REDIS_DB", 0),
			Channel:  envutil.String("REDIS_EVENTS_CHANNEL", "coursecraft:events"),
		},
		AMQP: amqp.Config{
			URL:      envutil.String("AMQP_URL", ""),
			Exchange: envutil.String("AMQP_EXCHANGE", amqp.DefaultExchange),
		},
		LLM: llm.Config{
			Provider: envutil.String("LLM_PROVIDER", "gemini"),
			Gemini: llm.GeminiConfig{
				APIKey: envutil.String("GEMINI_API_KEY", ""),
				Model:  envutil.String("GEMINI_MODEL", ""),
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  envutil.String("OPENAI_API_KEY", ""),
				Model:   envutil.String("OPENAI_MODEL", ""),
				BaseURL: envutil.String("OPENAI_BASE_URL", ""),
			},
			Retry: llm.RetryConfig{
				MaxAttempts:    envutil.Int("LLM_MAX_ATTEMPTS", 3),
				InitialBackoff: envutil.Duration("LLM_INITIAL_BACKOFF", 500*time.Millisecond),
				MaxBackoff:     envutil.Duration("LLM_MAX_BACKOFF", 8*time.Second),
			},
			Timeout: envutil.Duration("LLM_TIMEOUT", 90*time.Second),
		},
		Coursegen: coursegen.Config{
			Timeout:   envutil.Duration("LLM_TIMEOUT", 90*time.Second),
			MaxTokens: envutil.Int("LLM_MAX_TOKENS", 16384),
		},
		Auth: services.AuthConfig{
			Mode:     envutil.String("AUTH_MODE", services.AuthModeJWKS),
			JWKSURL:  envutil.String("AUTH_JWKS_URL", ""),
			Issuer:   envutil.String("AUTH_ISSUER", ""),
			Audience: envutil.String("AUTH_AUDIENCE", ""),
			Secret:   envutil.String("AUTH_JWT_SECRET", ""),
			JWKSTTL:  envutil.Duration("AUTH_JWKS_TTL", time.Hour),
			Leeway:   envutil.Duration("AUTH_LEEWAY", 30*time.Second),
		},
		Policy:          progression.DefaultConfig(),
		MaxWriteRetries: envutil.Int("PROGRESSION_MAX_RETRIES", 3),
		AllowedOrigins:  envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),
		MetricsInterval: envutil.Duration("METRICS_COLLECT_INTERVAL", 15*time.Second),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "coursecraft-backend"),
			Environment: envutil.String("OTEL_ENVIRONMENT", envutil.String("LOG_MODE", "development")),
			Version:     envutil.String("SERVICE_VERSION", "dev"),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: float64(envutil.Int("OTEL_SAMPLE_PERCENT", 100)) / 100,
		},
	}

	if path := envutil.String("PROGRESSION_POLICY_FILE", ""); path != "" {
		policy, err := progression.LoadConfigFile(path, cfg.Policy)
		if err != nil {
			return cfg, err
		}
		log.Info("Loaded progression policy", "path", path)
		cfg.Policy = policy
	}
	cfg.Policy.EnforceUnlock = envutil.Bool("ENFORCE_UNLOCK", cfg.Policy.EnforceUnlock)

	tz := envutil.String("STREAK_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return cfg, fmt.Errorf("STREAK_TIMEZONE %q: %w", tz, err)
	}
	cfg.StreakLocation = loc

	switch strings.ToLower(cfg.DB.Driver) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}
	return cfg, nil
}

// LLMConfigured reports whether the selected provider has credentials.
func (c Config) LLMConfigured() bool {
	switch strings.ToLower(strings.TrimSpace(c.LLM.Provider)) {
	case "openai":
		return c.LLM.OpenAI.APIKey != ""
	default:
		return c.LLM.Gemini.APIKey != ""
	}
}
