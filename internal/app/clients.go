package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecraft-backend/internal/clients/amqp"
	"github.com/yungbote/coursecraft-backend/internal/clients/redis"
	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/keylock"
	"github.com/yungbote/coursecraft-backend/internal/platform/llm"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Clients struct {
	Redis   *goredis.Client
	Locker  keylock.Locker
	Emitter *events.Emitter
	LLM     llm.Provider
}

// wireClients dials the optional infrastructure. Redis and AMQP are skipped when unset; an
// unconfigured LLM leaves course generation disabled.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	var pubs []events.Publisher

	// Redis
	if cfg.Redis.Addr != "" {
		rdb, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return out, fmt.Errorf("init redis: %w", err)
		}
		out.Redis = rdb
		out.Locker = redis.NewLocker(rdb, redis.LockerConfig{}, log)
		pubs = append(pubs, redis.NewEventPublisher(rdb, cfg.Redis.Channel, false, log))
	} else {
		out.Locker = keylock.NewLocal()
	}

	// Amqp
	if cfg.AMQP.URL != "" {
		pub, err := amqp.NewPublisher(cfg.AMQP, log)
		if err != nil {
			out.close(log)
			return Clients{}, fmt.Errorf("init amqp: %w", err)
		}
		pubs = append(pubs, pub)
	}
	if len(pubs) == 0 {
		pubs = append(pubs, events.NewLogPublisher(log))
	}
	out.Emitter = events.NewEmitter(log, pubs...)

	// LLM
	if cfg.LLMConfigured() {
		var obs llm.Observer
		if metrics != nil {
			obs = metrics
		}
		p, err := llm.New(ctx, cfg.LLM, log, obs)
		if err != nil {
			out.close(log)
			return Clients{}, fmt.Errorf("init llm provider: %w", err)
		}
		out.LLM = p
	} else {
		log.Warn("No LLM credentials configured; course generation is disabled", "provider", cfg.LLM.Provider)
	}
	return out, nil
}

func (c Clients) close(log *logger.Logger) {
	if c.Emitter != nil {
		if err := c.Emitter.Close(); err != nil {
			log.Warn("closing event publishers", "error", err)
		}
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

func authHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
