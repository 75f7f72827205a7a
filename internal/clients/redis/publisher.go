package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type eventPublisher struct {
	rdb     goredis.UniversalClient
	log     *logger.Logger
	channel string
	owned   bool
}

// NewEventPublisher publishes JSON events on channel. When owned is true Close also closes rdb.
func NewEventPublisher(rdb goredis.UniversalClient, channel string, owned bool, baseLog *logger.Logger) events.Publisher {
	if channel == "" {
		channel = "coursecraft.events"
	}
	return &eventPublisher{rdb: rdb, log: baseLog.With("publisher", "redis"), channel: channel, owned: owned}
}

func (p *eventPublisher) Publish(ctx context.Context, evs ...events.Event) error {
	if p == nil || p.rdb == nil {
		return fmt.Errorf("redis event publisher not initialized")
	}
	pipe := p.rdb.Pipeline()
	for _, ev := range evs {
		raw, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.Type, err)
		}
		pipe.Publish(ctx, p.channel, raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe forwards decoded events until ctx is done.
func Subscribe(ctx context.Context, rdb goredis.UniversalClient, channel string, log *logger.Logger, onEvent func(events.Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	sub := rdb.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var ev events.Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn("bad redis event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (p *eventPublisher) Close() error {
	if p == nil || p.rdb == nil || !p.owned {
		return nil
	}
	return p.rdb.Close()
}
